/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"sort"

	"chainguard.dev/convojudge/judges/evaluator"
	"chainguard.dev/convojudge/judges/recall"
	"chainguard.dev/convojudge/store/filestore"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func newRunCmd(cfg config, store *filestore.Store) *cobra.Command {
	var projectID, judgeID, conversationID string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate conversations with a judge and record its error findings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			project, err := store.LoadProject(ctx, projectID)
			if err != nil {
				return err
			}
			judge, err := store.Judge(ctx, judgeID)
			if err != nil {
				return err
			}

			gens, err := newGenerators(ctx, cfg)
			if err != nil {
				return err
			}
			eval := evaluator.New(gens)

			if conversationID != "" {
				conv, err := project.Conversation(conversationID)
				if err != nil {
					return err
				}
				if _, err := eval.Run(ctx, judge, conv); err != nil {
					return err
				}
				return store.SaveProject(ctx, project)
			}

			summary, err := eval.RunAll(ctx, judge, project.Conversations)
			if err != nil {
				return err
			}
			// Conversations that succeeded before a failure keep their
			// findings; only the remainder needs a retry.
			if err := store.SaveProject(ctx, project); err != nil {
				return err
			}

			clog.InfoContextf(ctx, "Evaluated %d conversations: %d succeeded, %d failed",
				summary.Total, summary.Succeeded, summary.Failed)
			for id, ferr := range summary.Failures {
				fmt.Printf("FAILED %s: %v\n", id, ferr)
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d conversations failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project to evaluate")
	cmd.Flags().StringVar(&judgeID, "judge", "", "judge to run")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "evaluate a single conversation instead of the whole project")
	cobra.CheckErr(cmd.MarkFlagRequired("project"))
	cobra.CheckErr(cmd.MarkFlagRequired("judge"))
	return cmd
}

func newRecallCmd(store *filestore.Store) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Compare judge findings against manual labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := store.LoadProject(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			stats := recall.Analyze(project)
			labels := make([]string, 0, len(stats))
			for label := range stats {
				labels = append(labels, label)
			}
			sort.Strings(labels)

			table := newReportTable([]string{"Label", "Recall", "TP", "FN", "Total"}, cmd.OutOrStdout())
			for _, label := range labels {
				s := stats[label]
				_ = table.Append([]string{
					label,
					fmt.Sprintf("%.0f%%", s.Recall*100),
					fmt.Sprintf("%d", s.TP),
					fmt.Sprintf("%d", s.FN),
					fmt.Sprintf("%d", s.Total),
				})
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project to analyze")
	cobra.CheckErr(cmd.MarkFlagRequired("project"))
	return cmd
}
