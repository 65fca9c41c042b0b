/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"errors"
	"reflect"
	"testing"

	"chainguard.dev/convojudge/judges/corpus"
)

func TestResultSchemaSingle(t *testing.T) {
	judge := corpus.NewJudgeAgent("context_loss", "loses context", "prompt")

	s, err := ResultSchema(judge)
	if err != nil {
		t.Fatalf("ResultSchema() unexpected error = %v", err)
	}

	m, err := ToMap(s)
	if err != nil {
		t.Fatalf("ToMap() unexpected error = %v", err)
	}

	props, ok := m["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties: %v", m)
	}
	for _, field := range []string{"label", "error_detected", "error_turns"} {
		if _, ok := props[field]; !ok {
			t.Errorf("missing property %q", field)
		}
	}

	turns, ok := props["error_turns"].(map[string]any)
	if !ok || turns["type"] != "array" {
		t.Fatalf("error_turns is not an array: %v", props["error_turns"])
	}
	items := turns["items"].(map[string]any)
	entryProps := items["properties"].(map[string]any)
	for _, field := range []string{"turn_index", "reason"} {
		if _, ok := entryProps[field]; !ok {
			t.Errorf("error_turns entry missing %q", field)
		}
	}
	if got := asStrings(items["required"]); !reflect.DeepEqual(got, []string{"turn_index", "reason"}) {
		t.Errorf("entry required = %v, want [turn_index reason]", got)
	}

	if got := asStrings(m["required"]); !reflect.DeepEqual(got, []string{"label", "error_detected", "error_turns"}) {
		t.Errorf("root required = %v, want [label error_detected error_turns]", got)
	}
}

func TestResultSchemaMulti(t *testing.T) {
	judge := &corpus.JudgeAgent{
		LabelName: "quality",
		Prompt:    "prompt",
		JudgeType: corpus.JudgeMulti,
		LabelsSchema: map[string]corpus.LabelSchema{
			"sentiment": {Kind: corpus.LabelString, Description: "tone of the turn", Enum: []string{"positive", "negative"}},
			"resolved":  {Kind: corpus.LabelBoolean, Description: "issue resolved"},
			"latency":   {Kind: corpus.LabelNumber, Description: "perceived delay"},
		},
	}

	s, err := ResultSchema(judge)
	if err != nil {
		t.Fatalf("ResultSchema() unexpected error = %v", err)
	}
	m, err := ToMap(s)
	if err != nil {
		t.Fatalf("ToMap() unexpected error = %v", err)
	}

	// Keys are sorted so the request schema is byte-stable across runs.
	if got := asStrings(m["required"]); !reflect.DeepEqual(got, []string{"latency", "resolved", "sentiment"}) {
		t.Errorf("root required = %v, want sorted schema keys", got)
	}

	props := m["properties"].(map[string]any)
	for key, wantType := range map[string]string{
		"sentiment": "string",
		"resolved":  "boolean",
		"latency":   "number",
	} {
		field, ok := props[key].(map[string]any)
		if !ok {
			t.Fatalf("missing property %q", key)
		}
		if field["type"] != "array" {
			t.Errorf("property %q type = %v, want array", key, field["type"])
		}
		items := field["items"].(map[string]any)
		entryProps := items["properties"].(map[string]any)
		value := entryProps["value"].(map[string]any)
		if value["type"] != wantType {
			t.Errorf("property %q value type = %v, want %q", key, value["type"], wantType)
		}
		if got := asStrings(items["required"]); !reflect.DeepEqual(got, []string{"turn_index", "value", "reason"}) {
			t.Errorf("property %q entry required = %v", key, got)
		}
	}

	sentiment := props["sentiment"].(map[string]any)["items"].(map[string]any)["properties"].(map[string]any)["value"].(map[string]any)
	if got, ok := sentiment["enum"].([]any); !ok || len(got) != 2 {
		t.Errorf("sentiment enum = %v, want two values", sentiment["enum"])
	}
}

func TestResultSchemaValidatesJudge(t *testing.T) {
	judge := &corpus.JudgeAgent{
		LabelName: "quality",
		Prompt:    "prompt",
		JudgeType: corpus.JudgeMulti,
	}
	if _, err := ResultSchema(judge); !errors.Is(err, corpus.ErrValidation) {
		t.Errorf("ResultSchema() error = %v, want ErrValidation", err)
	}
}

func TestReflectType(t *testing.T) {
	type response struct {
		Title string   `json:"title" jsonschema:"required"`
		Tags  []string `json:"tags"`
	}

	s := ReflectType[response]()
	m, err := ToMap(s)
	if err != nil {
		t.Fatalf("ToMap() unexpected error = %v", err)
	}

	props, ok := m["properties"].(map[string]any)
	if !ok {
		t.Fatalf("reflected schema has no properties: %v", m)
	}
	if _, ok := props["title"]; !ok {
		t.Error("missing property title")
	}
	if _, ok := props["tags"]; !ok {
		t.Error("missing property tags")
	}
	if got := asStrings(m["required"]); !reflect.DeepEqual(got, []string{"title"}) {
		t.Errorf("required = %v, want [title]", got)
	}
}

func asStrings(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
