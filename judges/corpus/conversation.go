/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package corpus

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser is a human (or caller) message.
	RoleUser Role = "user"
	// RoleAssistant is an assistant reply. Only assistant messages carry
	// turn indices.
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation's frozen history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnError records one judge finding against one assistant turn.
// At most one TurnError exists per (turn, label) pair; re-evaluation
// replaces the record rather than appending a duplicate.
type TurnError struct {
	// Label matches a judge's label name, or one of a multi-label judge's
	// schema keys.
	Label string `json:"label"`

	// OriginalReason is the reason text produced by the judge.
	OriginalReason string `json:"original_reason"`

	// EditedReason is a human override of the reason. When set, it takes
	// display precedence over OriginalReason.
	EditedReason *string `json:"edited_reason"`

	// Value holds the extracted typed value for multi-label judges.
	// It is nil for single-label judges.
	Value any `json:"value,omitempty"`
}

// Reason returns the human-edited reason when present, falling back to the
// judge's original reason.
func (e *TurnError) Reason() string {
	if e.EditedReason != nil && *e.EditedReason != "" {
		return *e.EditedReason
	}
	return e.OriginalReason
}

// Conversation is an imported multi-turn exchange. The message history is
// frozen at import time; only the error ledger and manual-label overlay
// mutate afterwards.
type Conversation struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
	Outcome  string    `json:"outcome,omitempty"`

	// TurnErrors maps assistant-turn index to the errors recorded there.
	// A turn with no errors is never persisted: the key is pruned when its
	// last error is removed.
	TurnErrors map[int][]TurnError `json:"turn_errors"`

	// ManualLabels is the human ground-truth overlay, keyed by assistant
	// turn index.
	ManualLabels map[int][]string `json:"manual_labels,omitempty"`

	// ManuallyLabelled marks the conversation as having complete ground
	// truth. Recall is only computed over conversations with this set.
	ManuallyLabelled bool `json:"manually_labelled,omitempty"`
}
