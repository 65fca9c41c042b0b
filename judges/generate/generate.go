/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package generate defines the evaluator-service contract: a single
// synchronous call taking a prompt, a message history, a result schema, and
// a model configuration, returning the raw payload. Callers never inspect
// transport details beyond success/payload vs. error. Provider
// implementations live in the subpackages.
package generate

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/convojudge/judges/corpus"
	"github.com/invopop/jsonschema"
)

// ErrTransport marks a network or service failure calling the evaluator.
// Batch loops surface it to the caller and continue with the next item
// rather than aborting the whole batch.
var ErrTransport = errors.New("transport failure")

// Transportf wraps a provider error in the transport taxonomy, keeping the
// provider's error body intact for the operator.
func Transportf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransport, fmt.Sprintf(format, args...))
}

// ModelConfig selects the model serving one request.
type ModelConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// Request is one evaluator call.
type Request struct {
	// Prompt is the instruction text, sent verbatim.
	Prompt string

	// Messages is the chat payload following the prompt.
	Messages []corpus.Message

	// ResultSchema, when set, constrains the reply to a structured result.
	ResultSchema *jsonschema.Schema

	// SchemaName and SchemaDescription label the structured result for
	// providers that model it as a tool or function call.
	SchemaName        string
	SchemaDescription string

	Config ModelConfig
}

// Generator is the evaluator service: the call either returns a raw payload
// or errors. The payload may be a string, a structured object, or anything
// in between; the result package normalizes it.
type Generator interface {
	Generate(ctx context.Context, req *Request) (any, error)
}
