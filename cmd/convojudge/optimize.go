/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/optimizer"
	"chainguard.dev/convojudge/judges/promptfix"
	"chainguard.dev/convojudge/store/filestore"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func newOptimizeCmd(cfg config, store *filestore.Store) *cobra.Command {
	var projectID, judgeID string
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Cluster a judge's errors into buckets",
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
			meta, err := store.MetaPrompts(ctx)
			if err != nil {
				return err
			}

			gens, err := newGenerators(ctx, cfg)
			if err != nil {
				return err
			}
			opt := optimizer.New(gens,
				optimizer.WithBucketingPrompt(meta.Bucketing),
				optimizer.WithSuggestionsPrompt(meta.Suggestions))

			res, err := opt.Run(ctx, project, judge)
			if err != nil {
				return err
			}
			if err := store.SaveProject(ctx, project); err != nil {
				return err
			}

			if len(res.Buckets) == 0 {
				clog.InfoContextf(ctx, "No errors found for judge %s", judge.LabelName)
				return nil
			}
			for i, b := range res.Buckets {
				fmt.Printf("[%d] %s (%d examples)\n    %s\n", i, b.Title, len(b.Examples), b.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project to optimize")
	cmd.Flags().StringVar(&judgeID, "judge", "", "judge whose errors to cluster")
	cobra.CheckErr(cmd.MarkFlagRequired("project"))
	cobra.CheckErr(cmd.MarkFlagRequired("judge"))
	return cmd
}

func newFixCmd(cfg config, store *filestore.Store) *cobra.Command {
	var (
		projectID string
		judgeIDs  []string
		bucket    int
		all       bool
		yes       bool
	)
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Propose a prompt rewrite from bucketed errors",
		Long: `Propose a prompt rewrite from bucketed errors. With --bucket, the rewrite
draws on a single bucket; with --all, on every unfixed bucket of the given
judges. The proposal is shown as a before/after comparison and committed
only on acceptance, which also marks the source buckets fixed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if all == (bucket >= 0) {
				return fmt.Errorf("exactly one of --bucket or --all is required")
			}
			if !all && len(judgeIDs) != 1 {
				return fmt.Errorf("--bucket requires exactly one --judge")
			}

			project, err := store.LoadProject(ctx, projectID)
			if err != nil {
				return err
			}
			judges := make([]*corpus.JudgeAgent, 0, len(judgeIDs))
			for _, id := range judgeIDs {
				judge, err := store.Judge(ctx, id)
				if err != nil {
					return err
				}
				judges = append(judges, judge)
			}
			meta, err := store.MetaPrompts(ctx)
			if err != nil {
				return err
			}

			gens, err := newGenerators(ctx, cfg)
			if err != nil {
				return err
			}
			fixer := promptfix.New(gens, promptfix.WithInstruction(meta.Optimization))

			var proposal *promptfix.Proposal
			if all {
				proposal, err = fixer.FixAll(ctx, project, judges)
			} else {
				proposal, err = fixer.FixBucket(ctx, project, judges[0], bucket)
			}
			if err != nil {
				return err
			}

			fmt.Printf("--- current prompt ---\n%s\n\n--- proposed prompt ---\n%s\n\n", proposal.Original, proposal.Proposed)
			if !yes && !confirm("Accept the proposed prompt?") {
				clog.InfoContext(ctx, "Proposal rejected, nothing changed")
				return nil
			}

			proposal.Accept()
			if err := store.SaveProject(ctx, project); err != nil {
				return err
			}
			clog.InfoContext(ctx, "Prompt updated and buckets marked fixed")
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project whose prompt to fix")
	cmd.Flags().StringSliceVar(&judgeIDs, "judge", nil, "judge(s) whose buckets supply examples")
	cmd.Flags().IntVar(&bucket, "bucket", -1, "fix a single bucket by index")
	cmd.Flags().BoolVar(&all, "all", false, "fix from every unfixed bucket")
	cmd.Flags().BoolVar(&yes, "yes", false, "accept the proposal without prompting")
	cobra.CheckErr(cmd.MarkFlagRequired("project"))
	cobra.CheckErr(cmd.MarkFlagRequired("judge"))
	return cmd
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
