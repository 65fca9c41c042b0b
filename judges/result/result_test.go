/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"errors"
	"reflect"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{{
		name: "json fence",
		input: "Here is the evaluation:\n```json\n" +
			`{"error_detected": true}` + "\n```",
		expected: `{"error_detected": true}`,
	}, {
		name:     "plain json passes through",
		input:    `{"plain": "json"}`,
		expected: `{"plain": "json"}`,
	}, {
		name:     "plain json with whitespace",
		input:    "\n   {\"plain\": true}\n   ",
		expected: `{"plain": true}`,
	}, {
		name:     "generic fence without json marker",
		input:    "```\n{\"generic\": true}\n```",
		expected: `{"generic": true}`,
	}, {
		name:     "unterminated fence",
		input:    "```json\n{\"incomplete\": true",
		expected: `{"incomplete": true`,
	}, {
		name:     "first of multiple fences",
		input:    "```json\n{\"first\": true}\n```\ntext\n```json\n{\"second\": true}\n```",
		expected: `{"first": true}`,
	}, {
		name: "fence with surrounding prose",
		input: "Let me check.\n\n```json\n" +
			`{"label": "context_loss"}` + "\n```\n\nThat covers it.",
		expected: `{"label": "context_loss"}`,
	}, {
		name:     "empty fence",
		input:    "```json\n```",
		expected: "",
	}, {
		name:     "empty input",
		input:    "",
		expected: "",
	}, {
		name:     "multiline object",
		input:    "```json\n{\n  \"a\": 1,\n  \"b\": 2\n}\n```",
		expected: "{\n  \"a\": 1,\n  \"b\": 2\n}",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			if got != tt.expected {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected map[string]any
		wantErr  bool
	}{{
		name:     "structured object passes through",
		raw:      map[string]any{"error_detected": false},
		expected: map[string]any{"error_detected": false},
	}, {
		name:     "json string",
		raw:      `{"error_detected": true}`,
		expected: map[string]any{"error_detected": true},
	}, {
		name:     "fenced json string",
		raw:      "```json\n{\"label\": \"context_loss\"}\n```",
		expected: map[string]any{"label": "context_loss"},
	}, {
		name:     "message envelope with object",
		raw:      map[string]any{"message": map[string]any{"error_detected": true}},
		expected: map[string]any{"error_detected": true},
	}, {
		name:     "fenced envelope with re-encoded payload",
		raw:      "```json\n{\"message\":\"{\\\"error_detected\\\":true}\"}\n```",
		expected: map[string]any{"error_detected": true},
	}, {
		name:     "envelope with string payload",
		raw:      map[string]any{"message": `{"label": "x", "error_detected": false}`},
		expected: map[string]any{"label": "x", "error_detected": false},
	}, {
		name:     "double envelope resolves to object",
		raw:      map[string]any{"message": map[string]any{"message": map[string]any{"ok": true}}},
		expected: map[string]any{"ok": true},
	}, {
		name:    "unparsable string",
		raw:     "the assistant did fine",
		wantErr: true,
	}, {
		name:    "array payload",
		raw:     `[1, 2, 3]`,
		wantErr: true,
	}, {
		name:    "number payload",
		raw:     3.14,
		wantErr: true,
	}, {
		name:    "envelope nesting beyond the bound",
		raw:     map[string]any{"message": map[string]any{"message": `{"too": "deep"}`}},
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrDecode) {
					t.Errorf("Normalize() error = %v, want ErrDecode", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() unexpected error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Normalize() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type evaluation struct {
		Label         string `json:"label"`
		ErrorDetected bool   `json:"error_detected"`
	}

	t.Run("fenced envelope with re-encoded payload", func(t *testing.T) {
		raw := "```json\n{\"message\":\"{\\\"error_detected\\\":true}\"}\n```"
		got, err := Decode[evaluation](raw)
		if err != nil {
			t.Fatalf("Decode() unexpected error = %v", err)
		}
		if want := (evaluation{ErrorDetected: true}); got != want {
			t.Errorf("Decode() = %+v, want %+v", got, want)
		}
	})

	t.Run("structured payload", func(t *testing.T) {
		raw := map[string]any{"label": "context_loss", "error_detected": true}
		got, err := Decode[evaluation](raw)
		if err != nil {
			t.Fatalf("Decode() unexpected error = %v", err)
		}
		if want := (evaluation{Label: "context_loss", ErrorDetected: true}); got != want {
			t.Errorf("Decode() = %+v, want %+v", got, want)
		}
	})

	t.Run("decode failure surfaces ErrDecode", func(t *testing.T) {
		if _, err := Decode[evaluation]("not json at all"); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode() error = %v, want ErrDecode", err)
		}
	})
}

func TestExtract(t *testing.T) {
	type bucketList struct {
		Buckets []string `json:"buckets"`
	}

	got, err := Extract[bucketList]("```json\n{\"buckets\": [\"a\", \"b\"]}\n```")
	if err != nil {
		t.Fatalf("Extract() unexpected error = %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(got.Buckets, want) {
		t.Errorf("Extract() buckets = %v, want %v", got.Buckets, want)
	}
}
