/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"errors"
	"testing"

	"chainguard.dev/convojudge/judges/corpus"
)

func TestUpsertReplaces(t *testing.T) {
	conv := &corpus.Conversation{ID: "c1"}
	l := For(conv)

	l.Upsert(2, "hallucination", "made up a refund policy", nil)
	l.Upsert(2, "hallucination", "invented a discount code", nil)

	errs := conv.TurnErrors[2]
	if len(errs) != 1 {
		t.Fatalf("expected exactly one record for the pair, got %d", len(errs))
	}
	if got := errs[0].OriginalReason; got != "invented a discount code" {
		t.Errorf("OriginalReason = %q, want the second reason", got)
	}
	if errs[0].EditedReason != nil {
		t.Errorf("EditedReason = %v, want nil", *errs[0].EditedReason)
	}
}

func TestUpsertResetsEditedReason(t *testing.T) {
	conv := &corpus.Conversation{ID: "c1"}
	l := For(conv)

	l.Upsert(0, "context_loss", "original", nil)
	if err := l.EditReason(0, "context_loss", "operator override"); err != nil {
		t.Fatalf("EditReason() unexpected error = %v", err)
	}

	// A re-run replaces the record wholesale; the stale override must not
	// survive against a fresh reason.
	l.Upsert(0, "context_loss", "fresh run", nil)

	rec, err := l.Find(0, "context_loss")
	if err != nil {
		t.Fatalf("Find() unexpected error = %v", err)
	}
	if rec.EditedReason != nil {
		t.Errorf("EditedReason = %q, want nil after upsert", *rec.EditedReason)
	}
	if rec.Reason() != "fresh run" {
		t.Errorf("Reason() = %q, want %q", rec.Reason(), "fresh run")
	}
}

func TestUpsertKeepsDistinctLabels(t *testing.T) {
	conv := &corpus.Conversation{ID: "c1"}
	l := For(conv)

	l.Upsert(1, "hallucination", "r1", nil)
	l.Upsert(1, "context_loss", "r2", nil)
	l.Upsert(1, "tone", "r3", "harsh")

	if got := len(conv.TurnErrors[1]); got != 3 {
		t.Fatalf("expected 3 records on turn 1, got %d", got)
	}
	rec, err := l.Find(1, "tone")
	if err != nil {
		t.Fatalf("Find() unexpected error = %v", err)
	}
	if rec.Value != "harsh" {
		t.Errorf("Value = %v, want %q", rec.Value, "harsh")
	}
}

func TestEditReason(t *testing.T) {
	conv := &corpus.Conversation{ID: "c1"}
	l := For(conv)
	l.Upsert(3, "tone", "curt reply", nil)

	tests := []struct {
		name      string
		turnIndex int
		label     string
		wantErr   bool
	}{{
		name:      "existing pair",
		turnIndex: 3,
		label:     "tone",
	}, {
		name:      "missing turn",
		turnIndex: 9,
		label:     "tone",
		wantErr:   true,
	}, {
		name:      "missing label",
		turnIndex: 3,
		label:     "hallucination",
		wantErr:   true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.EditReason(tt.turnIndex, tt.label, "edited")
			if tt.wantErr {
				if !errors.Is(err, corpus.ErrNotFound) {
					t.Errorf("EditReason() error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("EditReason() unexpected error = %v", err)
			}
			rec, err := l.Find(tt.turnIndex, tt.label)
			if err != nil {
				t.Fatalf("Find() unexpected error = %v", err)
			}
			if rec.Reason() != "edited" {
				t.Errorf("Reason() = %q, want the edited reason", rec.Reason())
			}
			if rec.OriginalReason != "curt reply" {
				t.Errorf("OriginalReason = %q, want it untouched", rec.OriginalReason)
			}
		})
	}
}

func TestDeletePrunesTurnKey(t *testing.T) {
	conv := &corpus.Conversation{ID: "c1"}
	l := For(conv)

	l.Upsert(1, "a", "r", nil)
	l.Upsert(1, "b", "r", nil)

	if err := l.Delete(1, "a"); err != nil {
		t.Fatalf("Delete() unexpected error = %v", err)
	}
	if _, ok := conv.TurnErrors[1]; !ok {
		t.Fatal("turn key removed while a record remains")
	}

	if err := l.Delete(1, "b"); err != nil {
		t.Fatalf("Delete() unexpected error = %v", err)
	}
	if _, ok := conv.TurnErrors[1]; ok {
		t.Error("turn key persisted with an empty record list")
	}

	if err := l.Delete(1, "b"); !errors.Is(err, corpus.ErrNotFound) {
		t.Errorf("Delete() on absent pair error = %v, want ErrNotFound", err)
	}
}

func TestClearAll(t *testing.T) {
	conv := &corpus.Conversation{ID: "c1"}
	l := For(conv)
	l.Upsert(0, "a", "r", nil)
	l.Upsert(4, "b", "r", nil)

	l.ClearAll()

	if len(conv.TurnErrors) != 0 {
		t.Errorf("TurnErrors = %v, want empty", conv.TurnErrors)
	}
}

func TestSetManualLabels(t *testing.T) {
	conv := &corpus.Conversation{ID: "c1"}
	l := For(conv)

	l.SetManualLabels(1, []string{"hallucination", "tone"})
	if got := conv.ManualLabels[1]; len(got) != 2 {
		t.Fatalf("ManualLabels[1] = %v, want two labels", got)
	}

	// Replacing wholesale, not appending.
	l.SetManualLabels(1, []string{"hallucination"})
	if got := conv.ManualLabels[1]; len(got) != 1 || got[0] != "hallucination" {
		t.Errorf("ManualLabels[1] = %v, want just hallucination", got)
	}

	// An empty set prunes the turn key.
	l.SetManualLabels(1, nil)
	if _, ok := conv.ManualLabels[1]; ok {
		t.Error("turn key persisted with an empty label set")
	}
}

func TestMarkLabelled(t *testing.T) {
	conv := &corpus.Conversation{ID: "c1"}
	l := For(conv)

	l.MarkLabelled(true)
	if !conv.ManuallyLabelled {
		t.Error("ManuallyLabelled = false, want true")
	}
	l.MarkLabelled(false)
	if conv.ManuallyLabelled {
		t.Error("ManuallyLabelled = true, want false")
	}
}
