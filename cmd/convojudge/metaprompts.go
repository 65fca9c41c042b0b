/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"os"

	"chainguard.dev/convojudge/store/filestore"
	"github.com/spf13/cobra"
)

func newMetaPromptsCmd(store *filestore.Store) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta-prompts",
		Short: "Tune the prompts behind bucketing, suggestions, and prompt rewriting",
	}
	cmd.AddCommand(newMetaPromptsSetCmd(store), newMetaPromptsShowCmd(store))
	return cmd
}

func newMetaPromptsSetCmd(store *filestore.Store) *cobra.Command {
	var bucketingFile, suggestionsFile, optimizationFile string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Override one or more meta prompts from files",
		Long: `Override one or more meta prompts from files. Prompts not named keep their
stored value; an empty file resets that prompt to the built-in default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			meta, err := store.MetaPrompts(ctx)
			if err != nil {
				return err
			}

			set := func(path string, dst *string) error {
				if path == "" {
					return nil
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading meta prompt: %w", err)
				}
				*dst = string(data)
				return nil
			}
			if err := set(bucketingFile, &meta.Bucketing); err != nil {
				return err
			}
			if err := set(suggestionsFile, &meta.Suggestions); err != nil {
				return err
			}
			if err := set(optimizationFile, &meta.Optimization); err != nil {
				return err
			}

			return store.SaveMetaPrompts(ctx, meta)
		},
	}
	cmd.Flags().StringVar(&bucketingFile, "bucketing", "", "file holding the error-clustering prompt")
	cmd.Flags().StringVar(&suggestionsFile, "suggestions", "", "file holding the per-example suggestion guidance")
	cmd.Flags().StringVar(&optimizationFile, "optimization", "", "file holding the prompt-rewrite instruction")
	return cmd
}

func newMetaPromptsShowCmd(store *filestore.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored meta prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := store.MetaPrompts(cmd.Context())
			if err != nil {
				return err
			}
			display := func(v string) string {
				if v == "" {
					return "(built-in default)"
				}
				return v
			}
			fmt.Printf("bucketing:\n%s\n\nsuggestions:\n%s\n\noptimization:\n%s\n",
				display(meta.Bucketing), display(meta.Suggestions), display(meta.Optimization))
			return nil
		},
	}
}
