/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package corpus

import (
	"fmt"

	"github.com/google/uuid"
)

// JudgeType distinguishes single-label judges from multi-label judges.
type JudgeType string

const (
	// JudgeSingle reports one label with error turns.
	JudgeSingle JudgeType = "single"
	// JudgeMulti reports one array of findings per labels-schema key.
	JudgeMulti JudgeType = "multi"
)

// JudgeCategory distinguishes conversation judges from analysis judges.
// Analysis judges get a larger error cap during optimization.
type JudgeCategory string

const (
	CategoryConversation JudgeCategory = "conversation"
	CategoryAnalysis     JudgeCategory = "analysis"
)

// LabelKind is the discriminator of the labels-schema union.
type LabelKind string

const (
	// LabelBoolean is a true/false finding.
	LabelBoolean LabelKind = "boolean"
	// LabelString is a string finding constrained to an enum of values.
	LabelString LabelKind = "string"
	// LabelNumber is a numeric finding.
	LabelNumber LabelKind = "number"
)

// LabelSchema describes the typed value a multi-label judge extracts for one
// schema key. It is a tagged union: Enum is meaningful only for string kinds.
type LabelSchema struct {
	Kind        LabelKind `json:"type"`
	Description string    `json:"description"`
	Enum        []string  `json:"enum,omitempty"`
}

// Validate checks the union invariants. Schemas are validated when the judge
// is saved, not at evaluation time.
func (s LabelSchema) Validate() error {
	switch s.Kind {
	case LabelBoolean, LabelNumber:
		if len(s.Enum) > 0 {
			return fmt.Errorf("%w: enum is only valid for string labels, got %q", ErrValidation, s.Kind)
		}
	case LabelString:
		if len(s.Enum) == 0 {
			return fmt.Errorf("%w: string labels require at least one enum value", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown label kind %q", ErrValidation, s.Kind)
	}
	return nil
}

// JudgeAgent is a configured LLM-based evaluator producing per-turn error
// labels against a conversation.
type JudgeAgent struct {
	ID          string `json:"id"`
	LabelName   string `json:"label_name"`
	Description string `json:"description"`

	// Prompt is the template sent verbatim to the evaluator service.
	Prompt string `json:"prompt"`

	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Provider    string        `json:"provider"`
	JudgeType   JudgeType     `json:"judge_type"`
	Category    JudgeCategory `json:"category,omitempty"`

	// LabelsSchema is required iff JudgeType is JudgeMulti.
	LabelsSchema map[string]LabelSchema `json:"labels_schema,omitempty"`
}

// NewJudgeAgent constructs a single-label judge with the registry defaults.
func NewJudgeAgent(labelName, description, prompt string) *JudgeAgent {
	return &JudgeAgent{
		ID:          uuid.NewString(),
		LabelName:   labelName,
		Description: description,
		Prompt:      prompt,
		Model:       "gpt-4.1-mini",
		Temperature: 0.5,
		Provider:    "openai",
		JudgeType:   JudgeSingle,
		Category:    CategoryConversation,
	}
}

// Validate rejects misconfigured judges before any network call.
func (j *JudgeAgent) Validate() error {
	if j.LabelName == "" {
		return fmt.Errorf("%w: judge requires a label name", ErrValidation)
	}
	if j.Prompt == "" {
		return fmt.Errorf("%w: judge %q requires a prompt", ErrValidation, j.LabelName)
	}
	switch j.JudgeType {
	case JudgeSingle, "":
	case JudgeMulti:
		if len(j.LabelsSchema) == 0 {
			return fmt.Errorf("%w: multi-label judge %q requires a labels schema", ErrValidation, j.LabelName)
		}
		for key, ls := range j.LabelsSchema {
			if err := ls.Validate(); err != nil {
				return fmt.Errorf("labels_schema[%q]: %w", key, err)
			}
		}
	default:
		return fmt.Errorf("%w: unknown judge type %q", ErrValidation, j.JudgeType)
	}
	return nil
}

// IsMulti reports whether the judge uses a labels schema. An unset judge
// type is treated as single-label for compatibility with older registries.
func (j *JudgeAgent) IsMulti() bool {
	return j.JudgeType == JudgeMulti
}

// Labels returns the set of labels this judge may emit: the label name for
// single-label judges, or the schema keys for multi-label judges.
func (j *JudgeAgent) Labels() []string {
	if !j.IsMulti() {
		return []string{j.LabelName}
	}
	labels := make([]string, 0, len(j.LabelsSchema))
	for key := range j.LabelsSchema {
		labels = append(labels, key)
	}
	return labels
}

// Emits reports whether label is judge-scoped to this judge. Labels are
// free-form strings and may collide across judges; callers filter with this
// rather than assuming a global registry.
func (j *JudgeAgent) Emits(label string) bool {
	if j.IsMulti() {
		_, ok := j.LabelsSchema[label]
		return ok
	}
	return label == j.LabelName
}
