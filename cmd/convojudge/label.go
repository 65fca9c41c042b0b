/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/ledger"
	"chainguard.dev/convojudge/judges/turns"
	"chainguard.dev/convojudge/store/filestore"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func newLabelCmd(store *filestore.Store) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Curate judge findings and ground-truth labels on a conversation",
	}
	cmd.AddCommand(
		newLabelManualCmd(store),
		newLabelMarkCmd(store),
		newLabelEditCmd(store),
		newLabelDeleteCmd(store),
		newLabelClearCmd(store),
	)
	return cmd
}

// withConversation loads the project and conversation, applies fn, and
// persists the project when fn succeeds.
func withConversation(cmd *cobra.Command, store *filestore.Store, projectID, conversationID string, fn func(*corpus.Conversation) error) error {
	ctx := cmd.Context()
	project, err := store.LoadProject(ctx, projectID)
	if err != nil {
		return err
	}
	conv, err := project.Conversation(conversationID)
	if err != nil {
		return err
	}
	if err := fn(conv); err != nil {
		return err
	}
	return store.SaveProject(ctx, project)
}

func newLabelManualCmd(store *filestore.Store) *cobra.Command {
	var (
		projectID, conversationID string
		turn                      int
		labels                    []string
	)
	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Set the ground-truth labels for an assistant turn",
		Long: `Set the ground-truth labels for an assistant turn. The turn's label set is
replaced wholesale; passing no --label clears the turn. Ground truth only
feeds recall once the conversation is marked labelled (see "label mark").`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversation(cmd, store, projectID, conversationID, func(conv *corpus.Conversation) error {
				if count := turns.Count(conv.Messages); turn < 0 || turn >= count {
					return fmt.Errorf("turn %d out of range (conversation has %d assistant turns): %w", turn, count, corpus.ErrNotFound)
				}
				ledger.For(conv).SetManualLabels(turn, labels)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project holding the conversation")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation to label")
	cmd.Flags().IntVar(&turn, "turn", 0, "assistant turn index")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "ground-truth label (repeatable)")
	cobra.CheckErr(cmd.MarkFlagRequired("project"))
	cobra.CheckErr(cmd.MarkFlagRequired("conversation"))
	cobra.CheckErr(cmd.MarkFlagRequired("turn"))
	return cmd
}

func newLabelMarkCmd(store *filestore.Store) *cobra.Command {
	var (
		projectID, conversationID string
		unmark                    bool
	)
	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Mark a conversation's ground truth as complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversation(cmd, store, projectID, conversationID, func(conv *corpus.Conversation) error {
				ledger.For(conv).MarkLabelled(!unmark)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project holding the conversation")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation to mark")
	cmd.Flags().BoolVar(&unmark, "unmark", false, "withdraw the conversation from recall analysis")
	cobra.CheckErr(cmd.MarkFlagRequired("project"))
	cobra.CheckErr(cmd.MarkFlagRequired("conversation"))
	return cmd
}

func newLabelEditCmd(store *filestore.Store) *cobra.Command {
	var (
		projectID, conversationID, label, reason string
		turn                                     int
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Override the reason on a recorded judge finding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversation(cmd, store, projectID, conversationID, func(conv *corpus.Conversation) error {
				return ledger.For(conv).EditReason(turn, label, reason)
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project holding the conversation")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation holding the finding")
	cmd.Flags().IntVar(&turn, "turn", 0, "assistant turn index")
	cmd.Flags().StringVar(&label, "label", "", "label of the finding to edit")
	cmd.Flags().StringVar(&reason, "reason", "", "replacement reason text")
	cobra.CheckErr(cmd.MarkFlagRequired("project"))
	cobra.CheckErr(cmd.MarkFlagRequired("conversation"))
	cobra.CheckErr(cmd.MarkFlagRequired("turn"))
	cobra.CheckErr(cmd.MarkFlagRequired("label"))
	cobra.CheckErr(cmd.MarkFlagRequired("reason"))
	return cmd
}

func newLabelDeleteCmd(store *filestore.Store) *cobra.Command {
	var (
		projectID, conversationID, label string
		turn                             int
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a recorded judge finding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversation(cmd, store, projectID, conversationID, func(conv *corpus.Conversation) error {
				return ledger.For(conv).Delete(turn, label)
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project holding the conversation")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation holding the finding")
	cmd.Flags().IntVar(&turn, "turn", 0, "assistant turn index")
	cmd.Flags().StringVar(&label, "label", "", "label of the finding to remove")
	cobra.CheckErr(cmd.MarkFlagRequired("project"))
	cobra.CheckErr(cmd.MarkFlagRequired("conversation"))
	cobra.CheckErr(cmd.MarkFlagRequired("turn"))
	cobra.CheckErr(cmd.MarkFlagRequired("label"))
	return cmd
}

func newLabelClearCmd(store *filestore.Store) *cobra.Command {
	var projectID, conversationID string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every judge finding from a conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withConversation(cmd, store, projectID, conversationID, func(conv *corpus.Conversation) error {
				ledger.For(conv).ClearAll()
				return nil
			})
			if err != nil {
				return err
			}
			clog.InfoContext(cmd.Context(), "Cleared all findings")
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project holding the conversation")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation to clear")
	cobra.CheckErr(cmd.MarkFlagRequired("project"))
	cobra.CheckErr(cmd.MarkFlagRequired("conversation"))
	return cmd
}
