/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package optimizer aggregates a judge's qualifying errors, asks an LLM to
// cluster them into titled buckets with representative examples, and
// persists the timestamped result keyed by judge. The LLM's role is
// categorization text only: conversational context is always reconstructed
// locally and re-attached after the call, never trusted from the response.
package optimizer

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/generate"
	"chainguard.dev/convojudge/judges/result"
	"chainguard.dev/convojudge/judges/schema"
	"chainguard.dev/convojudge/judges/turns"
	"github.com/chainguard-dev/clog"
)

const (
	// standardCap bounds how many errors are sent to the clusterer for
	// conversation judges.
	standardCap = 20
	// analysisCap is the larger bound for analysis-style judges.
	analysisCap = 50
)

// DefaultModelConfig is the clustering model used when the caller does not
// override it.
var DefaultModelConfig = generate.ModelConfig{
	Provider:    "google",
	Model:       "gemini-3-flash-preview",
	Temperature: 0.2,
}

// Optimizer clusters judge errors into buckets.
type Optimizer struct {
	gen         generate.Generator
	config      generate.ModelConfig
	bucketing   string
	suggestions string
}

// Option configures the optimizer.
type Option func(*Optimizer)

// WithModelConfig overrides the clustering model.
func WithModelConfig(cfg generate.ModelConfig) Option {
	return func(o *Optimizer) { o.config = cfg }
}

// WithBucketingPrompt overrides the clustering instruction with an
// operator-tuned meta prompt.
func WithBucketingPrompt(prompt string) Option {
	return func(o *Optimizer) {
		if prompt != "" {
			o.bucketing = prompt
		}
	}
}

// WithSuggestionsPrompt overrides the guidance for the per-example
// suggestion text.
func WithSuggestionsPrompt(prompt string) Option {
	return func(o *Optimizer) {
		if prompt != "" {
			o.suggestions = prompt
		}
	}
}

// New constructs an optimizer over the given service.
func New(gen generate.Generator, opts ...Option) *Optimizer {
	o := &Optimizer{
		gen:       gen,
		config:    DefaultModelConfig,
		bucketing: defaultBucketingInstruction,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// collectedError is one qualifying error with its locally captured context.
type collectedError struct {
	ConversationID string              `json:"conversationId"`
	TurnIndex      int                 `json:"turnIndex"`
	Reason         string              `json:"reason"`
	Context        *corpus.TurnContext `json:"context,omitempty"`
}

// bucketsResponse is the clusterer's output schema.
type bucketsResponse struct {
	Buckets []clusteredBucket `json:"buckets" jsonschema:"required"`
}

type clusteredBucket struct {
	Title       string             `json:"title" jsonschema:"required"`
	Description string             `json:"description" jsonschema:"required"`
	Examples    []clusteredExample `json:"examples" jsonschema:"required"`
}

type clusteredExample struct {
	ConversationID string `json:"conversationId" jsonschema:"required"`
	TurnIndex      int    `json:"turnIndex" jsonschema:"required"`
	Reason         string `json:"reason" jsonschema:"required"`
	Suggestion     string `json:"suggestion"`
}

// Run clusters the judge's errors across the project and stores the result
// on the project, replacing any previous run for this judge wholesale.
// A re-run invalidates all previous bucket indices, including their fixed
// flags.
func (o *Optimizer) Run(ctx context.Context, project *corpus.Project, judge *corpus.JudgeAgent) (*corpus.OptimizationResult, error) {
	log := clog.FromContext(ctx).With("judge", judge.LabelName).With("project", project.ID)

	if err := judge.Validate(); err != nil {
		return nil, err
	}

	collected := collect(project, judge)
	log.With("errors", len(collected)).Info("Collected qualifying errors")

	res := &corpus.OptimizationResult{Timestamp: time.Now().UnixMilli()}
	if len(collected) == 0 {
		// Nothing to cluster; do not call the LLM.
		res.Buckets = []corpus.OptimizationBucket{}
		project.SetOptimization(judge.ID, res)
		return res, nil
	}

	clustered, err := o.cluster(ctx, judge, collected)
	if err != nil {
		return nil, err
	}

	res.Buckets = attachContext(clustered, collected)
	project.SetOptimization(judge.ID, res)
	return res, nil
}

// collect gathers the judge's qualifying errors in conversation-then-turn
// iteration order, up to the judge's cap, so results are deterministic for
// a fixed ledger state. The human-edited reason takes precedence over the
// original.
func collect(project *corpus.Project, judge *corpus.JudgeAgent) []collectedError {
	limit := standardCap
	if judge.Category == corpus.CategoryAnalysis {
		limit = analysisCap
	}

	var out []collectedError
	for _, conv := range project.Conversations {
		for _, turn := range slices.Sorted(maps.Keys(conv.TurnErrors)) {
			for _, turnErr := range conv.TurnErrors[turn] {
				if !judge.Emits(turnErr.Label) {
					continue
				}
				if len(out) >= limit {
					return out
				}
				window, err := turns.Window(conv.Messages, turn)
				if err != nil {
					// Stale index from an older import; skip rather than
					// fabricate context.
					continue
				}
				out = append(out, collectedError{
					ConversationID: conv.ID,
					TurnIndex:      turn,
					Reason:         turnErr.Reason(),
					Context:        window,
				})
			}
		}
	}
	return out
}

// cluster sends the collected errors to the LLM with the bucketing
// instruction and a bucket-shaped output schema.
func (o *Optimizer) cluster(ctx context.Context, judge *corpus.JudgeAgent, collected []collectedError) (*bucketsResponse, error) {
	prompt, err := buildBucketingPrompt(o.bucketing, judge)
	if err != nil {
		return nil, err
	}
	if o.suggestions != "" {
		prompt += "\n\nGuidance for writing each example's suggestion:\n" + o.suggestions
	}

	payload, err := examplesPayload(collected)
	if err != nil {
		return nil, err
	}

	raw, err := o.gen.Generate(ctx, &generate.Request{
		Prompt:            prompt,
		Messages:          []corpus.Message{{Role: corpus.RoleUser, Content: payload}},
		ResultSchema:      schema.ReflectType[bucketsResponse](),
		SchemaName:        "error_buckets",
		SchemaDescription: "Cluster the judge's errors into thematic buckets.",
		Config:            o.config,
	})
	if err != nil {
		return nil, fmt.Errorf("clustering errors for judge %q: %w", judge.LabelName, err)
	}

	clustered, err := result.Decode[bucketsResponse](raw)
	if err != nil {
		clog.FromContext(ctx).With("raw_payload", fmt.Sprintf("%v", raw)).
			Error("Failed to decode clusterer response")
		return nil, err
	}
	return &clustered, nil
}

// attachContext converts the clusterer's buckets into the persisted shape,
// re-attaching the locally captured context by (conversation, turn) and
// discarding anything the LLM may have invented for messages it never saw.
func attachContext(clustered *bucketsResponse, collected []collectedError) []corpus.OptimizationBucket {
	contexts := make(map[string]*corpus.TurnContext, len(collected))
	for _, c := range collected {
		contexts[fmt.Sprintf("%s/%d", c.ConversationID, c.TurnIndex)] = c.Context
	}

	buckets := make([]corpus.OptimizationBucket, 0, len(clustered.Buckets))
	for _, b := range clustered.Buckets {
		bucket := corpus.OptimizationBucket{
			Title:       b.Title,
			Description: b.Description,
		}
		for _, ex := range b.Examples {
			bucket.Examples = append(bucket.Examples, corpus.OptimizationExample{
				ConversationID: ex.ConversationID,
				TurnIndex:      ex.TurnIndex,
				Reason:         ex.Reason,
				Suggestion:     ex.Suggestion,
				Context:        contexts[fmt.Sprintf("%s/%d", ex.ConversationID, ex.TurnIndex)],
			})
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}
