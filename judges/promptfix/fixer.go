/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptfix proposes LLM rewrites of the agent prompt from bucketed
// judge errors. Proposals are staged: nothing is committed until the
// operator accepts, and accepting writes the new prompt and the buckets'
// fixed flags together.
package promptfix

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/generate"
	"github.com/chainguard-dev/clog"
)

// DefaultModelConfig is the rewrite model used when the caller does not
// override it.
var DefaultModelConfig = generate.ModelConfig{
	Provider:    "google",
	Model:       "gemini-3-flash-preview",
	Temperature: 0.2,
}

// Fixer asks an LLM to rewrite a prompt so a bucket's error class stops
// occurring.
type Fixer struct {
	gen         generate.Generator
	config      generate.ModelConfig
	instruction string
}

// Option configures the fixer.
type Option func(*Fixer)

// WithModelConfig overrides the rewrite model.
func WithModelConfig(cfg generate.ModelConfig) Option {
	return func(f *Fixer) { f.config = cfg }
}

// WithInstruction overrides the rewrite instruction with an operator-tuned
// meta prompt.
func WithInstruction(instruction string) Option {
	return func(f *Fixer) {
		if instruction != "" {
			f.instruction = instruction
		}
	}
}

// New constructs a fixer over the given service.
func New(gen generate.Generator, opts ...Option) *Fixer {
	f := &Fixer{
		gen:         gen,
		config:      DefaultModelConfig,
		instruction: defaultFixInstruction,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// bucketRef identifies a bucket by its judge and its index within that
// judge's current optimization result.
type bucketRef struct {
	judgeID string
	index   int
}

// Proposal is a staged prompt rewrite. It holds no committed state: Accept
// writes the proposed prompt and marks the source buckets fixed in one
// step, and discarding the proposal leaves the project untouched.
type Proposal struct {
	Original string
	Proposed string

	project *corpus.Project
	buckets []bucketRef
}

// Accept commits the rewrite: the project's agent prompt becomes the
// proposed text and every bucket that contributed examples is marked
// fixed. The two updates always land together.
func (p *Proposal) Accept() {
	p.project.AgentPrompt = p.Proposed
	for _, ref := range p.buckets {
		res, err := p.project.Optimization(ref.judgeID)
		if err != nil || ref.index >= len(res.Buckets) {
			// The optimizer re-ran since the proposal was staged; the old
			// bucket identity no longer exists.
			continue
		}
		res.Buckets[ref.index].Fixed = true
	}
}

// FixBucket proposes a rewrite from a single bucket's examples.
func (f *Fixer) FixBucket(ctx context.Context, project *corpus.Project, judge *corpus.JudgeAgent, bucketIndex int) (*Proposal, error) {
	res, err := project.Optimization(judge.ID)
	if err != nil {
		return nil, err
	}
	if bucketIndex < 0 || bucketIndex >= len(res.Buckets) {
		return nil, fmt.Errorf("judge %q has no bucket %d: %w", judge.LabelName, bucketIndex, corpus.ErrNotFound)
	}

	bucket := res.Buckets[bucketIndex]
	return f.propose(ctx, project, bucket.Examples, []bucketRef{{judgeID: judge.ID, index: bucketIndex}})
}

// FixAll proposes one rewrite from every non-fixed bucket of the given
// judges. With more than one judge, each example's reason is prefixed with
// its originating judge's label to disambiguate.
func (f *Fixer) FixAll(ctx context.Context, project *corpus.Project, judges []*corpus.JudgeAgent) (*Proposal, error) {
	crossJudge := len(judges) > 1

	var examples []corpus.OptimizationExample
	var refs []bucketRef
	for _, judge := range judges {
		res, err := project.Optimization(judge.ID)
		if errors.Is(err, corpus.ErrNotFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		for i, bucket := range res.Buckets {
			if bucket.Fixed {
				continue
			}
			for _, ex := range bucket.Examples {
				if crossJudge {
					ex.Reason = fmt.Sprintf("[%s] %s", judge.LabelName, ex.Reason)
				}
				examples = append(examples, ex)
			}
			refs = append(refs, bucketRef{judgeID: judge.ID, index: i})
		}
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("no unfixed buckets to draw examples from: %w", corpus.ErrNotFound)
	}
	return f.propose(ctx, project, examples, refs)
}

func (f *Fixer) propose(ctx context.Context, project *corpus.Project, examples []corpus.OptimizationExample, refs []bucketRef) (*Proposal, error) {
	log := clog.FromContext(ctx).With("project", project.ID).With("examples", len(examples))

	prompt, err := buildFixPrompt(f.instruction, project.AgentPrompt)
	if err != nil {
		return nil, err
	}

	log.Info("Requesting prompt rewrite")
	raw, err := f.gen.Generate(ctx, &generate.Request{
		Prompt:   prompt,
		Messages: []corpus.Message{{Role: corpus.RoleUser, Content: renderTrajectories(examples)}},
		Config:   f.config,
	})
	if err != nil {
		return nil, fmt.Errorf("rewriting prompt: %w", err)
	}

	proposed, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("rewrite service returned %T, want text", raw)
	}
	proposed = strings.TrimSpace(proposed)
	if proposed == "" {
		return nil, generate.Transportf("rewrite service returned an empty prompt")
	}

	return &Proposal{
		Original: project.AgentPrompt,
		Proposed: proposed,
		project:  project,
		buckets:  refs,
	}, nil
}

// renderTrajectories formats each example as a numbered before/after
// trajectory with the flagged turn's feedback.
func renderTrajectories(examples []corpus.OptimizationExample) string {
	var b strings.Builder
	for i, ex := range examples {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Example %d ---\n", i+1)
		if ex.Context != nil {
			if ex.Context.UserBefore != "" {
				fmt.Fprintf(&b, "User: %s\n", ex.Context.UserBefore)
			}
			fmt.Fprintf(&b, "Assistant: %s\n", ex.Context.Assistant)
			if ex.Context.UserAfter != "" {
				fmt.Fprintf(&b, "User: %s\n", ex.Context.UserAfter)
			}
		}
		fmt.Fprintf(&b, "Feedback: Error: %s", ex.Reason)
		if ex.Suggestion != "" {
			fmt.Fprintf(&b, " Suggestion: %s", ex.Suggestion)
		}
	}
	return b.String()
}
