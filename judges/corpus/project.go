/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package corpus

import (
	"fmt"

	"github.com/google/uuid"
)

// TurnContext is the conversational neighborhood of an error: the user
// message before the offending assistant turn, the turn itself, and the user
// message after. It is always reconstructed from the live conversation,
// never taken from an LLM response.
type TurnContext struct {
	UserBefore string `json:"user_before"`
	Assistant  string `json:"assistant"`
	UserAfter  string `json:"user_after"`
}

// OptimizationExample is one representative error inside a bucket.
type OptimizationExample struct {
	ConversationID string       `json:"conversationId"`
	TurnIndex      int          `json:"turnIndex"`
	Reason         string       `json:"reason"`
	Suggestion     string       `json:"suggestion,omitempty"`
	Context        *TurnContext `json:"context,omitempty"`
}

// OptimizationBucket is a thematic cluster of same-root-cause errors.
// Bucket identity is its index within one OptimizationResult; re-running the
// optimizer replaces the whole list and invalidates previous indices.
type OptimizationBucket struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Examples    []OptimizationExample `json:"examples"`
	Fixed       bool                  `json:"fixed,omitempty"`
}

// OptimizationResult is the persisted output of one optimizer run for one
// judge. Timestamp is epoch milliseconds.
type OptimizationResult struct {
	Timestamp int64                `json:"timestamp"`
	Buckets   []OptimizationBucket `json:"buckets"`
}

// MetaPrompts holds the operator-tunable instructions driving error
// bucketing, suggestion generation, and prompt optimization.
type MetaPrompts struct {
	Bucketing    string `json:"bucketing,omitempty"`
	Suggestions  string `json:"suggestions,omitempty"`
	Optimization string `json:"optimization,omitempty"`
}

// Project is a curated corpus of conversations plus everything derived from
// it: the optimization results keyed by judge, and the agent prompt that the
// fixer iterates on.
type Project struct {
	ID            string                         `json:"id"`
	Name          string                         `json:"name"`
	Conversations []*Conversation                `json:"conversations"`
	Optimizations map[string]*OptimizationResult `json:"optimizations,omitempty"`

	// AgentPrompt is free text, optionally split into sections by the fixer.
	AgentPrompt string `json:"agentPrompt,omitempty"`
}

// NewProject constructs an empty project with a fresh identifier.
func NewProject(name string) *Project {
	return &Project{
		ID:   uuid.NewString(),
		Name: name,
	}
}

// Conversation returns the conversation with the given id.
func (p *Project) Conversation(id string) (*Conversation, error) {
	for _, c := range p.Conversations {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("conversation %q: %w", id, ErrNotFound)
}

// Optimization returns the persisted optimizer output for a judge.
func (p *Project) Optimization(judgeID string) (*OptimizationResult, error) {
	res, ok := p.Optimizations[judgeID]
	if !ok {
		return nil, fmt.Errorf("optimization for judge %q: %w", judgeID, ErrNotFound)
	}
	return res, nil
}

// SetOptimization replaces the optimizer output for a judge wholesale.
func (p *Project) SetOptimization(judgeID string, res *OptimizationResult) {
	if p.Optimizations == nil {
		p.Optimizations = make(map[string]*OptimizationResult, 1)
	}
	p.Optimizations[judgeID] = res
}
