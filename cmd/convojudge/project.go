/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/turns"
	"chainguard.dev/convojudge/store/filestore"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func newProjectCmd(store *filestore.Store) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage conversation corpora",
	}
	cmd.AddCommand(newProjectImportCmd(store), newProjectListCmd(store), newProjectDeleteCmd(store))
	return cmd
}

func newProjectImportCmd(store *filestore.Store) *cobra.Command {
	var name, promptFile string
	cmd := &cobra.Command{
		Use:   "import <conversations.json>",
		Short: "Create a project from a file of normalized conversations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading conversations: %w", err)
			}
			var convs []*corpus.Conversation
			if err := json.Unmarshal(data, &convs); err != nil {
				return fmt.Errorf("parsing conversations: %w", err)
			}

			project := corpus.NewProject(name)
			project.Conversations = convs
			if promptFile != "" {
				prompt, err := os.ReadFile(promptFile)
				if err != nil {
					return fmt.Errorf("reading agent prompt: %w", err)
				}
				project.AgentPrompt = string(prompt)
			}

			if err := store.SaveProject(ctx, project); err != nil {
				return err
			}
			clog.InfoContextf(ctx, "Imported %d conversations into project %s", len(convs), project.ID)
			fmt.Println(project.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "human-readable project name")
	cmd.Flags().StringVar(&promptFile, "agent-prompt", "", "file holding the agent prompt under optimization")
	return cmd
}

func newProjectListCmd(store *filestore.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := store.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			table := newReportTable([]string{"ID", "Name", "Conversations", "Assistant turns"}, cmd.OutOrStdout())
			for _, p := range projects {
				turnsTotal := 0
				for _, c := range p.Conversations {
					turnsTotal += turns.Count(c.Messages)
				}
				_ = table.Append([]string{p.ID, p.Name, fmt.Sprintf("%d", len(p.Conversations)), fmt.Sprintf("%d", turnsTotal)})
			}
			return table.Render()
		},
	}
}

func newProjectDeleteCmd(store *filestore.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.DeleteProject(cmd.Context(), args[0])
		},
	}
}
