/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googlegen implements the evaluator service on the Gemini API via
// google.golang.org/genai. A result schema is enforced through JSON
// response mode with a converted response schema.
package googlegen

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/generate"
	"chainguard.dev/convojudge/judges/generate/retry"
	"chainguard.dev/convojudge/judges/schema"
	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"
)

// Generator calls the Gemini API.
type Generator struct {
	client      *genai.Client
	retryConfig retry.Config
}

// Option configures the generator.
type Option func(*Generator) error

// WithRetryConfig overrides the transient-error retry configuration.
func WithRetryConfig(cfg retry.Config) Option {
	return func(g *Generator) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		g.retryConfig = cfg
		return nil
	}
}

// New constructs a generator over the given client.
func New(client *genai.Client, opts ...Option) (*Generator, error) {
	g := &Generator{
		client:      client,
		retryConfig: retry.DefaultConfig(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return g, nil
}

// Generate implements generate.Generator.
func (g *Generator) Generate(ctx context.Context, req *generate.Request) (any, error) {
	log := clog.FromContext(ctx)

	temp := float32(req.Config.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}

	if req.ResultSchema != nil {
		m, err := schema.ToMap(req.ResultSchema)
		if err != nil {
			return nil, err
		}
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toResponseSchema(m)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.RoleUser
		if msg.Role == corpus.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	response, err := retry.Do(ctx, g.retryConfig, "google_generate", isRetryableError, func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, req.Config.Model, contents, config)
	})
	if err != nil {
		return nil, generate.Transportf("google: %v", err)
	}

	text := response.Text()
	if text == "" {
		return nil, generate.Transportf("google: no content generated")
	}
	log.With("response_length", len(text)).Debug("Gemini returned response")
	return text, nil
}

// toResponseSchema converts a plain JSON-schema map into the genai schema
// shape. Only the subset the result schemas use (object/array/string/
// number/boolean, enum, required) is translated.
func toResponseSchema(m map[string]any) *genai.Schema {
	s := &genai.Schema{}

	if desc, ok := m["description"].(string); ok {
		s.Description = desc
	}

	switch m["type"] {
	case "object":
		s.Type = genai.TypeObject
		if props, ok := m["properties"].(map[string]any); ok {
			s.Properties = make(map[string]*genai.Schema, len(props))
			for key, sub := range props {
				if subMap, ok := sub.(map[string]any); ok {
					s.Properties[key] = toResponseSchema(subMap)
				}
			}
		}
		if required, ok := m["required"].([]any); ok {
			for _, v := range required {
				if str, ok := v.(string); ok {
					s.Required = append(s.Required, str)
				}
			}
		}
	case "array":
		s.Type = genai.TypeArray
		if items, ok := m["items"].(map[string]any); ok {
			s.Items = toResponseSchema(items)
		}
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	default:
		s.Type = genai.TypeString
		if enum, ok := m["enum"].([]any); ok {
			for _, v := range enum {
				if str, ok := v.(string); ok {
					s.Enum = append(s.Enum, str)
				}
			}
		}
	}
	return s
}

// isRetryableError reports whether the error is a transient Gemini API
// error: rate limit, quota exhaustion, or server-side failures.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "Resource exhausted") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "Overloaded") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "quota exceeded") ||
		strings.Contains(msg, "server error")
}
