/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generate

import (
	"context"
	"fmt"
)

// Mux routes each request to the generator registered for its provider, so
// judges configured against different backends can share one pipeline.
type Mux map[string]Generator

// Generate implements Generator.
func (m Mux) Generate(ctx context.Context, req *Request) (any, error) {
	gen, ok := m[req.Config.Provider]
	if !ok {
		return nil, fmt.Errorf("no generator registered for provider %q", req.Config.Provider)
	}
	return gen.Generate(ctx, req)
}
