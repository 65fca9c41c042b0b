/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package turns derives the stable 0-based index over assistant turns in a
// conversation. User messages carry no turn index, and a conventional
// onboarding message at the head of the history is excluded entirely. The
// mapping is recomputed on every access: it is cheap, and message lists are
// immutable after import.
package turns

import (
	"fmt"
	"strings"

	"chainguard.dev/convojudge/judges/corpus"
)

// NoTurn is the sentinel index assigned to messages that are not assistant
// turns.
const NoTurn = -1

// onboardingPhrase marks the conventional scripted opener injected by the
// importer. A leading user message containing it is not part of the real
// exchange.
const onboardingPhrase = "Introduce yourself"

// start returns the position of the first message that participates in turn
// indexing, skipping a leading onboarding user message when present.
func start(messages []corpus.Message) int {
	if len(messages) > 0 &&
		messages[0].Role == corpus.RoleUser &&
		strings.Contains(messages[0].Content, onboardingPhrase) {
		return 1
	}
	return 0
}

// Indices returns a slice aligned with messages, holding each message's
// assistant-turn index, or NoTurn for user messages and the onboarding
// message. Assistant indices form a contiguous 0..k-1 sequence in document
// order.
func Indices(messages []corpus.Message) []int {
	indices := make([]int, len(messages))
	turn := 0
	first := start(messages)
	for i, m := range messages {
		if i < first || m.Role != corpus.RoleAssistant {
			indices[i] = NoTurn
			continue
		}
		indices[i] = turn
		turn++
	}
	return indices
}

// Count returns the number of assistant turns in the conversation.
func Count(messages []corpus.Message) int {
	n := 0
	for _, idx := range Indices(messages) {
		if idx != NoTurn {
			n++
		}
	}
	return n
}

// Position inverts the turn-index map, returning the message position of the
// assistant turn with the given index.
func Position(messages []corpus.Message, turnIndex int) (int, error) {
	for pos, idx := range Indices(messages) {
		if idx == turnIndex && turnIndex != NoTurn {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("assistant turn %d: %w", turnIndex, corpus.ErrNotFound)
}

// Annotate returns the history sent to an evaluator: the onboarding message
// is dropped and each assistant message's content is prefixed with a literal
// "[TURN n] " marker so the LLM can reference turns unambiguously.
func Annotate(messages []corpus.Message) []corpus.Message {
	indices := Indices(messages)
	out := make([]corpus.Message, 0, len(messages))
	for pos := start(messages); pos < len(messages); pos++ {
		m := messages[pos]
		if indices[pos] != NoTurn {
			m.Content = fmt.Sprintf("[TURN %d] %s", indices[pos], m.Content)
		}
		out = append(out, m)
	}
	return out
}

// Window reconstructs the conversational neighborhood of an assistant turn
// from the live message list: the message immediately before, the turn
// itself, and the message immediately after.
func Window(messages []corpus.Message, turnIndex int) (*corpus.TurnContext, error) {
	pos, err := Position(messages, turnIndex)
	if err != nil {
		return nil, err
	}
	ctx := &corpus.TurnContext{Assistant: messages[pos].Content}
	if pos > 0 {
		ctx.UserBefore = messages[pos-1].Content
	}
	if pos+1 < len(messages) {
		ctx.UserAfter = messages[pos+1].Content
	}
	return ctx, nil
}
