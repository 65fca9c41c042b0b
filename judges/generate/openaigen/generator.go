/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaigen implements the evaluator service on the OpenAI chat
// completions API. A result schema is enforced through structured outputs
// (json_schema response format); the reply text still flows through the
// tolerant decoder on the caller's side.
package openaigen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/generate"
	"chainguard.dev/convojudge/judges/generate/retry"
	"chainguard.dev/convojudge/judges/schema"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// Generator calls the OpenAI chat completions API.
type Generator struct {
	client      openai.Client
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
func New(client openai.Client, opts ...Option) (*Generator, error) {
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

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	messages = append(messages, openai.SystemMessage(req.Prompt))
	for _, m := range req.Messages {
		if m.Role == corpus.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Config.Model),
		Temperature: openai.Float(req.Config.Temperature),
		Messages:    messages,
	}

	if req.ResultSchema != nil {
		schemaMap, err := schema.ToMap(req.ResultSchema)
		if err != nil {
			return nil, err
		}
		name := req.SchemaName
		if name == "" {
			name = "submit_result"
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        name,
					Description: openai.String(req.SchemaDescription),
					Schema:      schemaMap,
				},
			},
		}
	}

	completion, err := retry.Do(ctx, g.retryConfig, "openai_generate", isRetryableError, func() (*openai.ChatCompletion, error) {
		completion, err := g.client.Chat.Completions.New(ctx, params)
		return completion, withRetryHint(err)
	})
	if err != nil {
		return nil, generate.Transportf("openai: %v", err)
	}

	if len(completion.Choices) == 0 {
		return nil, generate.Transportf("openai: no choices in response")
	}

	text := completion.Choices[0].Message.Content
	log.With("response_length", len(text)).Debug("OpenAI returned response")
	return text, nil
}

// withRetryHint surfaces the provider's Retry-After header so rate-limited
// calls wait as long as the provider asks rather than the generic backoff.
func withRetryHint(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return err
	}
	if secs, perr := strconv.Atoi(apiErr.Response.Header.Get("Retry-After")); perr == nil && secs > 0 {
		return retry.After(err, time.Duration(secs)*time.Second)
	}
	return err
}

// isRetryableError reports whether the error is a transient OpenAI API
// error.
func isRetryableError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}
