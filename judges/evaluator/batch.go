/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluator

import (
	"context"

	"chainguard.dev/convojudge/judges/corpus"
	"github.com/chainguard-dev/clog"
)

// BatchSummary reports the outcome of a run over many conversations. Batch
// runs are not atomic: conversations evaluated before a failure keep their
// updates, and the caller retries only the unprocessed remainder.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int

	// Failures maps conversation ID to the error that stopped it.
	Failures map[string]error
}

// RunAll evaluates every conversation with the judge, sequentially and
// awaiting each call before issuing the next. The serial loop is a
// deliberate throttle against third-party rate limits. Per-conversation
// failures are recorded and the loop continues with the next item; only a
// misconfigured judge aborts before any call is made.
func (e *Evaluator) RunAll(ctx context.Context, judge *corpus.JudgeAgent, convs []*corpus.Conversation) (*BatchSummary, error) {
	if err := judge.Validate(); err != nil {
		return nil, err
	}

	log := clog.FromContext(ctx).With("judge", judge.LabelName)
	summary := &BatchSummary{
		Total:    len(convs),
		Failures: make(map[string]error),
	}

	for i, conv := range convs {
		log.With("conversation", conv.ID).
			Infof("Processing %d/%d", i+1, len(convs))

		if _, err := e.Run(ctx, judge, conv); err != nil {
			log.With("conversation", conv.ID).With("error", err).
				Error("Evaluation failed, continuing with next conversation")
			summary.Failed++
			summary.Failures[conv.ID] = err
			continue
		}
		summary.Succeeded++
	}

	return summary, nil
}
