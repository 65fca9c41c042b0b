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
	"chainguard.dev/convojudge/store/filestore"
	"github.com/spf13/cobra"
)

func newJudgeCmd(store *filestore.Store) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Manage the judge registry",
	}
	cmd.AddCommand(newJudgeAddCmd(store), newJudgeListCmd(store), newJudgeDeleteCmd(store))
	return cmd
}

func newJudgeAddCmd(store *filestore.Store) *cobra.Command {
	var (
		description string
		promptFile  string
		model       string
		provider    string
		temperature float64
		category    string
		schemaFile  string
	)
	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Register a judge",
		Long: `Register a judge. A plain invocation creates a single-label judge; passing
--labels-schema promotes it to a multi-label judge whose schema file maps
each label to {kind, description, enum}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := os.ReadFile(promptFile)
			if err != nil {
				return fmt.Errorf("reading judge prompt: %w", err)
			}

			judge := corpus.NewJudgeAgent(args[0], description, string(prompt))
			if model != "" {
				judge.Model = model
			}
			if provider != "" {
				judge.Provider = provider
			}
			if cmd.Flags().Changed("temperature") {
				judge.Temperature = temperature
			}
			if category == string(corpus.CategoryAnalysis) {
				judge.Category = corpus.CategoryAnalysis
			}
			if schemaFile != "" {
				data, err := os.ReadFile(schemaFile)
				if err != nil {
					return fmt.Errorf("reading labels schema: %w", err)
				}
				if err := json.Unmarshal(data, &judge.LabelsSchema); err != nil {
					return fmt.Errorf("parsing labels schema: %w", err)
				}
				judge.JudgeType = corpus.JudgeMulti
			}

			if err := store.SaveJudge(cmd.Context(), judge); err != nil {
				return err
			}
			fmt.Println(judge.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "what this judge detects")
	cmd.Flags().StringVar(&promptFile, "prompt", "", "file holding the judge prompt")
	cmd.Flags().StringVar(&model, "model", "", "evaluator model")
	cmd.Flags().StringVar(&provider, "provider", "", "evaluator provider: openai, anthropic, or google")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "evaluator temperature")
	cmd.Flags().StringVar(&category, "category", "", "judge category: conversation or analysis")
	cmd.Flags().StringVar(&schemaFile, "labels-schema", "", "JSON file defining a multi-label schema")
	cobra.CheckErr(cmd.MarkFlagRequired("prompt"))
	return cmd
}

func newJudgeListCmd(store *filestore.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered judges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			judges, err := store.ListJudges(cmd.Context())
			if err != nil {
				return err
			}
			table := newReportTable([]string{"ID", "Label", "Type", "Model"}, cmd.OutOrStdout())
			for _, j := range judges {
				_ = table.Append([]string{j.ID, j.LabelName, string(j.JudgeType), fmt.Sprintf("%s/%s", j.Provider, j.Model)})
			}
			return table.Render()
		},
	}
}

func newJudgeDeleteCmd(store *filestore.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <judge-id>",
		Short: "Delete a judge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.DeleteJudge(cmd.Context(), args[0])
		},
	}
}
