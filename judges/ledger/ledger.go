/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package ledger owns the per-conversation, per-turn error records. All
// operations are conversation-scoped and assume a single logical writer per
// conversation; callers running concurrent requests against the same
// conversation must serialize writes around it.
package ledger

import (
	"fmt"

	"chainguard.dev/convojudge/judges/corpus"
)

// Ledger mutates one conversation's turn_errors map in place.
type Ledger struct {
	conv *corpus.Conversation
}

// For returns a ledger over the given conversation.
func For(conv *corpus.Conversation) *Ledger {
	return &Ledger{conv: conv}
}

// Upsert records an error for (turnIndex, label). An existing record for the
// pair is replaced, never duplicated; the replacement resets any edited
// reason.
func (l *Ledger) Upsert(turnIndex int, label, reason string, value any) {
	if l.conv.TurnErrors == nil {
		l.conv.TurnErrors = make(map[int][]corpus.TurnError, 1)
	}

	entry := corpus.TurnError{
		Label:          label,
		OriginalReason: reason,
		Value:          value,
	}

	errs := l.conv.TurnErrors[turnIndex]
	for i := range errs {
		if errs[i].Label == label {
			errs[i] = entry
			return
		}
	}
	l.conv.TurnErrors[turnIndex] = append(errs, entry)
}

// EditReason sets the human override for an existing (turnIndex, label)
// record.
func (l *Ledger) EditReason(turnIndex int, label, newReason string) error {
	errs, ok := l.conv.TurnErrors[turnIndex]
	if !ok {
		return fmt.Errorf("turn %d has no errors: %w", turnIndex, corpus.ErrNotFound)
	}
	for i := range errs {
		if errs[i].Label == label {
			errs[i].EditedReason = &newReason
			return nil
		}
	}
	return fmt.Errorf("label %q on turn %d: %w", label, turnIndex, corpus.ErrNotFound)
}

// Delete removes the (turnIndex, label) record, pruning the turn key when
// its list becomes empty. A turn with an empty error list is never
// persisted.
func (l *Ledger) Delete(turnIndex int, label string) error {
	errs, ok := l.conv.TurnErrors[turnIndex]
	if !ok {
		return fmt.Errorf("turn %d has no errors: %w", turnIndex, corpus.ErrNotFound)
	}
	for i := range errs {
		if errs[i].Label != label {
			continue
		}
		errs = append(errs[:i], errs[i+1:]...)
		if len(errs) == 0 {
			delete(l.conv.TurnErrors, turnIndex)
		} else {
			l.conv.TurnErrors[turnIndex] = errs
		}
		return nil
	}
	return fmt.Errorf("label %q on turn %d: %w", label, turnIndex, corpus.ErrNotFound)
}

// ClearAll resets the conversation's error ledger to empty.
func (l *Ledger) ClearAll() {
	l.conv.TurnErrors = map[int][]corpus.TurnError{}
}

// SetManualLabels replaces the ground-truth labels for a turn. An empty
// label set removes the turn from the overlay entirely.
func (l *Ledger) SetManualLabels(turnIndex int, labels []string) {
	if len(labels) == 0 {
		delete(l.conv.ManualLabels, turnIndex)
		return
	}
	if l.conv.ManualLabels == nil {
		l.conv.ManualLabels = make(map[int][]string, 1)
	}
	l.conv.ManualLabels[turnIndex] = labels
}

// MarkLabelled flags the conversation as having complete ground truth,
// admitting it into recall analysis.
func (l *Ledger) MarkLabelled(labelled bool) {
	l.conv.ManuallyLabelled = labelled
}

// Find returns the record for (turnIndex, label).
func (l *Ledger) Find(turnIndex int, label string) (*corpus.TurnError, error) {
	for i := range l.conv.TurnErrors[turnIndex] {
		if l.conv.TurnErrors[turnIndex][i].Label == label {
			return &l.conv.TurnErrors[turnIndex][i], nil
		}
	}
	return nil, fmt.Errorf("label %q on turn %d: %w", label, turnIndex, corpus.ErrNotFound)
}
