/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result normalizes raw evaluator-service replies into structured
// evaluation objects. The service is not contractually guaranteed to return
// a single well-formed JSON object: payloads may be fenced in markdown,
// double-JSON-encoded, or wrapped in a {"message": ...} envelope. Decoding
// is a bounded loop (at most two unwrap passes) so the failure modes stay
// finite and testable.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrDecode marks a payload that remained unparsable after the bounded
// unwrap attempts. Callers log the raw payload and treat the evaluation as
// failed; nothing is written to the ledger.
var ErrDecode = errors.New("decode failure")

// maxUnwrapPasses bounds the string-reparse loop. One level of re-encoding
// plus one level of envelope wrapping is the most the service produces.
const maxUnwrapPasses = 2

// ExtractJSON strips a wrapping markdown code fence from a text response.
// It prefers a ```json block on its own lines, falls back to trimming
// leading/trailing fence markers, and returns the input trimmed when no
// fence is present.
func ExtractJSON(text string) string {
	if block, ok := fencedBlock(text); ok {
		return block
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// fencedBlock returns the content of the first ```json ... ``` block, if any.
func fencedBlock(text string) (string, bool) {
	var block []string
	inside := false
	for line := range strings.Lines(text) {
		line = strings.TrimSuffix(line, "\n")
		switch {
		case !inside && line == "```json":
			inside = true
		case inside && line == "```":
			return strings.TrimSpace(strings.Join(block, "\n")), true
		case inside:
			block = append(block, line)
		}
	}
	if inside {
		// Unterminated fence: take what we collected.
		return strings.TrimSpace(strings.Join(block, "\n")), true
	}
	return "", false
}

// Normalize reduces a raw payload (string or structured object) to a plain
// JSON object. Strings are fence-stripped and parsed; a "message" envelope
// is unwrapped; a string inside the envelope gets one more parse pass. It
// never panics: any unparsable payload yields an error wrapping ErrDecode.
func Normalize(raw any) (map[string]any, error) {
	candidate := raw
	for pass := 0; pass < maxUnwrapPasses; pass++ {
		if s, ok := candidate.(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(ExtractJSON(s)), &parsed); err != nil {
				return nil, fmt.Errorf("%w: pass %d: %v", ErrDecode, pass+1, err)
			}
			candidate = parsed
		}

		obj, ok := candidate.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: payload is %T, expected object", ErrDecode, candidate)
		}

		msg, wrapped := obj["message"]
		if !wrapped {
			return obj, nil
		}
		candidate = msg
	}

	// Both passes were spent unwrapping; whatever remains must already be
	// a plain object.
	if obj, ok := candidate.(map[string]any); ok {
		return obj, nil
	}
	return nil, fmt.Errorf("%w: payload still wrapped after %d passes", ErrDecode, maxUnwrapPasses)
}

// Decode normalizes a raw payload and unmarshals it into T.
func Decode[T any](raw any) (T, error) {
	var out T

	obj, err := Normalize(raw)
	if err != nil {
		return out, err
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

// Extract parses JSON content out of a text response and unmarshals it into
// T, without envelope handling. Useful for LLM calls whose reply is a single
// fenced object.
func Extract[T any](text string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}
