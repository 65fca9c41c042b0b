/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package anthropicgen implements the evaluator service on the Anthropic
// API. When a result schema is supplied, the call is forced through a
// single tool so the reply arrives as structured input rather than prose.
package anthropicgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/generate"
	"chainguard.dev/convojudge/judges/generate/retry"
	"chainguard.dev/convojudge/judges/schema"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/chainguard-dev/clog"
)

const defaultMaxTokens = 8192

// Generator calls the Anthropic Messages API.
type Generator struct {
	client      anthropic.Client
	maxTokens   int64
	retryConfig retry.Config
}

// Option configures the generator.
type Option func(*Generator) error

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(tokens int64) Option {
	return func(g *Generator) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		g.maxTokens = tokens
		return nil
	}
}

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
func New(client anthropic.Client, opts ...Option) (*Generator, error) {
	g := &Generator{
		client:      client,
		maxTokens:   defaultMaxTokens,
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

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Config.Model),
		MaxTokens:   g.maxTokens,
		Temperature: anthropic.Float(req.Config.Temperature),
		System:      []anthropic.TextBlockParam{{Text: req.Prompt}},
	}

	for _, m := range req.Messages {
		role := anthropic.MessageParamRoleUser
		if m.Role == corpus.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}

	if req.ResultSchema != nil {
		tool, err := resultTool(req)
		if err != nil {
			return nil, err
		}
		params.Tools = []anthropic.ToolUnionParam{{OfTool: tool}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: tool.Name},
		}
	}

	message, err := retry.Do(ctx, g.retryConfig, "anthropic_generate", isRetryableError, func() (*anthropic.Message, error) {
		message, err := g.client.Messages.New(ctx, params)
		return message, withRetryHint(err)
	})
	if err != nil {
		return nil, generate.Transportf("anthropic: %v", err)
	}

	var text string
	for _, content := range message.Content {
		switch content.Type {
		case "tool_use":
			var payload map[string]any
			if err := json.Unmarshal(content.Input, &payload); err != nil {
				// Hand the raw input to the decoder instead of failing here.
				return string(content.Input), nil
			}
			return payload, nil
		case "text":
			text = content.Text
		}
	}

	if text == "" {
		return nil, generate.Transportf("anthropic: empty response")
	}
	log.With("response_length", len(text)).Debug("Anthropic returned text response")
	return text, nil
}

// resultTool renders the result schema as the single tool the model must
// call.
func resultTool(req *generate.Request) (*anthropic.ToolParam, error) {
	m, err := schema.ToMap(req.ResultSchema)
	if err != nil {
		return nil, err
	}

	var required []string
	if raw, ok := m["required"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				required = append(required, s)
			}
		}
	}

	name := req.SchemaName
	if name == "" {
		name = "submit_result"
	}

	return &anthropic.ToolParam{
		Name:        name,
		Description: anthropic.String(req.SchemaDescription),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type:       constant.Object("object"),
			Properties: m["properties"],
			Required:   required,
		},
	}, nil
}

// withRetryHint surfaces the provider's Retry-After header so rate-limited
// calls wait as long as the provider asks rather than the generic backoff.
func withRetryHint(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return err
	}
	if secs, perr := strconv.Atoi(apiErr.Response.Header.Get("Retry-After")); perr == nil && secs > 0 {
		return retry.After(err, time.Duration(secs)*time.Second)
	}
	return err
}

// isRetryableError reports whether the error is a transient Anthropic API
// error: rate limit, overloaded, or server-side failures.
func isRetryableError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 503, 504, 529:
			return true
		}
	}
	return false
}
