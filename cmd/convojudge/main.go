/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements the convojudge CLI: importing conversation
// corpora, running LLM judges against them, measuring judge recall,
// clustering errors into buckets, and proposing prompt fixes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chainguard.dev/convojudge/judges/generate"
	"chainguard.dev/convojudge/judges/generate/anthropicgen"
	"chainguard.dev/convojudge/judges/generate/googlegen"
	"chainguard.dev/convojudge/judges/generate/openaigen"
	"chainguard.dev/convojudge/store/filestore"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

type config struct {
	// DBPath is the JSON database file holding projects and judges.
	DBPath string `env:"CONVOJUDGE_DB,default=convojudge.json"`

	// GoogleBackend selects the genai backend; the Gemini API key is read
	// from the environment by the SDK.
	GoogleBackend string `env:"CONVOJUDGE_GOOGLE_BACKEND,default=gemini"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	store := filestore.New(cfg.DBPath)

	root := &cobra.Command{
		Use:           "convojudge",
		Short:         "Run LLM judges over conversation corpora and optimize prompts from their findings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newProjectCmd(store),
		newJudgeCmd(store),
		newLabelCmd(store),
		newRunCmd(cfg, store),
		newRecallCmd(store),
		newOptimizeCmd(cfg, store),
		newFixCmd(cfg, store),
		newMetaPromptsCmd(store),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		clog.FatalContextf(ctx, "%v", err)
	}
}

// newGenerators builds one generator per provider. Clients authenticate
// from their SDKs' standard environment variables; a provider is only
// exercised when a judge or meta prompt selects it.
func newGenerators(ctx context.Context, cfg config) (generate.Mux, error) {
	anthropicGen, err := anthropicgen.New(anthropic.NewClient())
	if err != nil {
		return nil, fmt.Errorf("building anthropic generator: %w", err)
	}

	openaiGen, err := openaigen.New(openai.NewClient())
	if err != nil {
		return nil, fmt.Errorf("building openai generator: %w", err)
	}

	backend := genai.BackendGeminiAPI
	if cfg.GoogleBackend == "vertex" {
		backend = genai.BackendVertexAI
	}
	googleClient, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: backend})
	if err != nil {
		return nil, fmt.Errorf("building google client: %w", err)
	}
	googleGen, err := googlegen.New(googleClient)
	if err != nil {
		return nil, fmt.Errorf("building google generator: %w", err)
	}

	return generate.Mux{
		"anthropic": anthropicGen,
		"openai":    openaiGen,
		"google":    googleGen,
	}, nil
}
