/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package corpus

import (
	"errors"
	"sort"
	"testing"
)

func TestLabelSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  LabelSchema
		wantErr bool
	}{{
		name:   "boolean",
		schema: LabelSchema{Kind: LabelBoolean, Description: "flag"},
	}, {
		name:   "number",
		schema: LabelSchema{Kind: LabelNumber, Description: "score"},
	}, {
		name:   "string with enum",
		schema: LabelSchema{Kind: LabelString, Description: "severity", Enum: []string{"low", "high"}},
	}, {
		name:    "string without enum",
		schema:  LabelSchema{Kind: LabelString, Description: "severity"},
		wantErr: true,
	}, {
		name:    "boolean with enum",
		schema:  LabelSchema{Kind: LabelBoolean, Enum: []string{"yes"}},
		wantErr: true,
	}, {
		name:    "number with enum",
		schema:  LabelSchema{Kind: LabelNumber, Enum: []string{"1"}},
		wantErr: true,
	}, {
		name:    "unknown kind",
		schema:  LabelSchema{Kind: "object"},
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Validate() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestJudgeAgentValidate(t *testing.T) {
	tests := []struct {
		name    string
		judge   *JudgeAgent
		wantErr bool
	}{{
		name:  "single judge with defaults",
		judge: NewJudgeAgent("context_loss", "loses prior context", "watch for forgotten facts"),
	}, {
		name:    "missing label name",
		judge:   &JudgeAgent{Prompt: "p"},
		wantErr: true,
	}, {
		name:    "missing prompt",
		judge:   &JudgeAgent{LabelName: "tone"},
		wantErr: true,
	}, {
		name: "multi judge with schema",
		judge: &JudgeAgent{
			LabelName: "conversation_quality",
			Prompt:    "p",
			JudgeType: JudgeMulti,
			LabelsSchema: map[string]LabelSchema{
				"sentiment": {Kind: LabelString, Enum: []string{"positive", "negative"}},
				"resolved":  {Kind: LabelBoolean},
			},
		},
	}, {
		name: "multi judge without schema",
		judge: &JudgeAgent{
			LabelName: "conversation_quality",
			Prompt:    "p",
			JudgeType: JudgeMulti,
		},
		wantErr: true,
	}, {
		name: "multi judge with invalid schema entry",
		judge: &JudgeAgent{
			LabelName: "conversation_quality",
			Prompt:    "p",
			JudgeType: JudgeMulti,
			LabelsSchema: map[string]LabelSchema{
				"sentiment": {Kind: LabelString},
			},
		},
		wantErr: true,
	}, {
		name: "unset judge type is single",
		judge: &JudgeAgent{
			LabelName: "tone",
			Prompt:    "p",
		},
	}, {
		name: "unknown judge type",
		judge: &JudgeAgent{
			LabelName: "tone",
			Prompt:    "p",
			JudgeType: "ensemble",
		},
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.judge.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Validate() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestJudgeLabels(t *testing.T) {
	single := NewJudgeAgent("hallucination", "", "p")
	if got := single.Labels(); len(got) != 1 || got[0] != "hallucination" {
		t.Errorf("Labels() = %v, want [hallucination]", got)
	}

	multi := &JudgeAgent{
		LabelName: "quality",
		Prompt:    "p",
		JudgeType: JudgeMulti,
		LabelsSchema: map[string]LabelSchema{
			"sentiment": {Kind: LabelString, Enum: []string{"positive"}},
			"resolved":  {Kind: LabelBoolean},
		},
	}
	got := multi.Labels()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "resolved" || got[1] != "sentiment" {
		t.Errorf("Labels() = %v, want [resolved sentiment]", got)
	}
}

func TestJudgeEmits(t *testing.T) {
	single := NewJudgeAgent("hallucination", "", "p")
	multi := &JudgeAgent{
		LabelName: "quality",
		Prompt:    "p",
		JudgeType: JudgeMulti,
		LabelsSchema: map[string]LabelSchema{
			"sentiment": {Kind: LabelString, Enum: []string{"positive"}},
		},
	}

	tests := []struct {
		name     string
		judge    *JudgeAgent
		label    string
		expected bool
	}{{
		name:     "single emits its label name",
		judge:    single,
		label:    "hallucination",
		expected: true,
	}, {
		name:     "single rejects other labels",
		judge:    single,
		label:    "tone",
		expected: false,
	}, {
		name:     "multi emits schema keys",
		judge:    multi,
		label:    "sentiment",
		expected: true,
	}, {
		name:     "multi does not emit its own label name",
		judge:    multi,
		label:    "quality",
		expected: false,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.judge.Emits(tt.label); got != tt.expected {
				t.Errorf("Emits(%q) = %v, want %v", tt.label, got, tt.expected)
			}
		})
	}
}

func TestTurnErrorReason(t *testing.T) {
	edited := "operator override"
	empty := ""

	tests := []struct {
		name     string
		err      TurnError
		expected string
	}{{
		name:     "original only",
		err:      TurnError{OriginalReason: "missed the delay"},
		expected: "missed the delay",
	}, {
		name:     "edited takes precedence",
		err:      TurnError{OriginalReason: "missed the delay", EditedReason: &edited},
		expected: "operator override",
	}, {
		name:     "empty edit falls back",
		err:      TurnError{OriginalReason: "missed the delay", EditedReason: &empty},
		expected: "missed the delay",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Reason(); got != tt.expected {
				t.Errorf("Reason() = %q, want %q", got, tt.expected)
			}
		})
	}
}
