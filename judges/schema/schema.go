/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema builds the JSON result schemas constraining evaluator
// output, and wraps jsonschema reflection for LLM response types.
package schema

import (
	"encoding/json"
	"fmt"
	"slices"

	"chainguard.dev/convojudge/judges/corpus"
	"github.com/invopop/jsonschema"
)

// Generator wraps jsonschema.Reflector with the defaults we need for
// evaluator result schemas.
type Generator struct {
	reflector jsonschema.Reflector
}

// NewGenerator constructs a generator wired with project defaults.
func NewGenerator() *Generator {
	return &Generator{
		reflector: jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			AllowAdditionalProperties:  true,
			DoNotReference:             true,
		},
	}
}

// Reflect returns the JSON schema for the provided value.
func (g *Generator) Reflect(v any) *jsonschema.Schema {
	return g.reflector.Reflect(v)
}

// ReflectType allocates a zero value of T and reflects it to a schema.
func ReflectType[T any]() *jsonschema.Schema {
	var zero T
	return NewGenerator().Reflect(&zero)
}

// ResultSchema constructs the result schema the evaluator is asked to fill
// for the given judge. Single-label judges get the fixed
// label/error_detected/error_turns shape; multi-label judges get one array
// field per labels-schema key with the entry value typed per the schema
// definition. The judge is validated before any schema is built.
func ResultSchema(judge *corpus.JudgeAgent) (*jsonschema.Schema, error) {
	if err := judge.Validate(); err != nil {
		return nil, err
	}
	if judge.IsMulti() {
		return multiSchema(judge), nil
	}
	return singleSchema(), nil
}

func singleSchema() *jsonschema.Schema {
	entry := objectSchema()
	entry.Properties.Set("turn_index", &jsonschema.Schema{Type: "number"})
	entry.Properties.Set("reason", &jsonschema.Schema{Type: "string"})
	entry.Required = []string{"turn_index", "reason"}

	root := objectSchema()
	root.Properties.Set("label", &jsonschema.Schema{Type: "string"})
	root.Properties.Set("error_detected", &jsonschema.Schema{Type: "boolean"})
	root.Properties.Set("error_turns", &jsonschema.Schema{
		Type:  "array",
		Items: entry,
	})
	root.Required = []string{"label", "error_detected", "error_turns"}
	return root
}

func multiSchema(judge *corpus.JudgeAgent) *jsonschema.Schema {
	root := objectSchema()

	// Map iteration order is random; sort the keys so the request schema is
	// stable across runs.
	keys := judge.Labels()
	slices.Sort(keys)

	for _, key := range keys {
		ls := judge.LabelsSchema[key]

		entry := objectSchema()
		entry.Properties.Set("turn_index", &jsonschema.Schema{Type: "number"})
		entry.Properties.Set("value", valueSchema(ls))
		entry.Properties.Set("reason", &jsonschema.Schema{Type: "string"})
		entry.Required = []string{"turn_index", "value", "reason"}

		root.Properties.Set(key, &jsonschema.Schema{
			Type:        "array",
			Description: ls.Description,
			Items:       entry,
		})
		root.Required = append(root.Required, key)
	}
	return root
}

// valueSchema renders one labels-schema union member as JSON schema.
func valueSchema(ls corpus.LabelSchema) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        string(ls.Kind),
		Description: ls.Description,
	}
	if ls.Kind == corpus.LabelString {
		s.Enum = make([]any, 0, len(ls.Enum))
		for _, v := range ls.Enum {
			s.Enum = append(s.Enum, v)
		}
	}
	return s
}

func objectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
}

// ToMap converts a schema to a plain map for SDKs that take open-ended
// schema parameters.
func ToMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return out, nil
}
