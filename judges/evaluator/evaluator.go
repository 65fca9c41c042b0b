/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package evaluator runs judge agents against conversations: it builds the
// evaluator request (annotated history plus result schema), invokes the
// evaluator service, and merges decoded findings into the conversation's
// error ledger. A judge run either merges completely or leaves the ledger
// untouched; partial writes are not permitted.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/generate"
	"chainguard.dev/convojudge/judges/ledger"
	"chainguard.dev/convojudge/judges/result"
	"chainguard.dev/convojudge/judges/schema"
	"chainguard.dev/convojudge/judges/turns"
	"github.com/chainguard-dev/clog"
)

const (
	toolName        = "judge_evaluation"
	toolDescription = "Judge assistant turns for the specified error label."
)

// SingleResult is the decoded shape of a single-label judge evaluation.
type SingleResult struct {
	Label         string      `json:"label"`
	ErrorDetected bool        `json:"error_detected"`
	ErrorTurns    []ErrorTurn `json:"error_turns"`
}

// ErrorTurn is one flagged turn in a single-label evaluation.
type ErrorTurn struct {
	TurnIndex int    `json:"turn_index"`
	Reason    string `json:"reason"`
}

// MultiEntry is one flagged turn in a multi-label evaluation.
type MultiEntry struct {
	TurnIndex int    `json:"turn_index"`
	Value     any    `json:"value"`
	Reason    string `json:"reason"`
}

// Evaluator runs judges through an evaluator service.
type Evaluator struct {
	gen generate.Generator
}

// New constructs an evaluator over the given service. The caller resolves
// the service matching the judge's provider.
func New(gen generate.Generator) *Evaluator {
	return &Evaluator{gen: gen}
}

// Run evaluates one conversation with one judge and merges the findings
// into the conversation's error ledger. The returned object is the decoded
// evaluation for display. On decode or transport failure the ledger is left
// untouched.
func (e *Evaluator) Run(ctx context.Context, judge *corpus.JudgeAgent, conv *corpus.Conversation) (map[string]any, error) {
	log := clog.FromContext(ctx).With("judge", judge.LabelName).With("conversation", conv.ID)

	// Misconfigured judges are rejected before any network call.
	if err := judge.Validate(); err != nil {
		return nil, err
	}

	req, err := buildRequest(judge, conv)
	if err != nil {
		return nil, err
	}

	raw, err := e.gen.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("evaluating conversation %q: %w", conv.ID, err)
	}

	evaluation, err := result.Normalize(raw)
	if err != nil {
		log.With("raw_payload", fmt.Sprintf("%v", raw)).Error("Failed to decode evaluation")
		return nil, err
	}

	if err := merge(ctx, judge, conv, evaluation); err != nil {
		return nil, err
	}
	return evaluation, nil
}

// buildRequest assembles the evaluator call: the judge prompt verbatim, the
// turn-annotated history wrapped in a single user message, and the result
// schema for the judge's type.
func buildRequest(judge *corpus.JudgeAgent, conv *corpus.Conversation) (*generate.Request, error) {
	resultSchema, err := schema.ResultSchema(judge)
	if err != nil {
		return nil, err
	}

	history, err := json.Marshal(map[string]any{
		"llmHistory": turns.Annotate(conv.Messages),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling history: %w", err)
	}

	return &generate.Request{
		Prompt: judge.Prompt,
		Messages: []corpus.Message{{
			Role:    corpus.RoleUser,
			Content: string(history),
		}},
		ResultSchema:      resultSchema,
		SchemaName:        toolName,
		SchemaDescription: toolDescription,
		Config: generate.ModelConfig{
			Provider:    judge.Provider,
			Model:       judge.Model,
			Temperature: judge.Temperature,
		},
	}, nil
}

// mutation is one pending ledger write. Findings are fully decoded into
// mutations before any of them is applied, making the merge all-or-nothing.
type mutation struct {
	turnIndex int
	label     string
	reason    string
	value     any
}

func merge(ctx context.Context, judge *corpus.JudgeAgent, conv *corpus.Conversation, evaluation map[string]any) error {
	var pending []mutation
	if judge.IsMulti() {
		for key := range judge.LabelsSchema {
			entries, err := decodeField[[]MultiEntry](evaluation, key)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				pending = append(pending, mutation{
					turnIndex: entry.TurnIndex,
					label:     key,
					reason:    entry.Reason,
					value:     entry.Value,
				})
			}
		}
	} else {
		decoded, err := result.Decode[SingleResult](evaluation)
		if err != nil {
			return err
		}
		if decoded.ErrorDetected {
			for _, turn := range decoded.ErrorTurns {
				pending = append(pending, mutation{
					turnIndex: turn.TurnIndex,
					label:     judge.LabelName,
					reason:    turn.Reason,
				})
			}
		}
	}

	log := clog.FromContext(ctx)
	led := ledger.For(conv)
	count := turns.Count(conv.Messages)
	for _, m := range pending {
		// The history is explicitly turn-numbered, so indices outside the
		// conversation are evaluator noise rather than real findings.
		if m.turnIndex < 0 || m.turnIndex >= count {
			log.With("turn_index", m.turnIndex).With("label", m.label).
				Warn("Dropping finding with out-of-range turn index")
			continue
		}
		led.Upsert(m.turnIndex, m.label, m.reason, m.value)
	}
	return nil
}

// decodeField unmarshals one field of the normalized evaluation into T.
// A missing field decodes as the zero value: judges that found nothing for
// a label simply omit it.
func decodeField[T any](evaluation map[string]any, key string) (T, error) {
	var out T
	raw, ok := evaluation[key]
	if !ok || raw == nil {
		return out, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return out, fmt.Errorf("%w: %v", result.ErrDecode, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: field %q: %v", result.ErrDecode, key, err)
	}
	return out, nil
}
