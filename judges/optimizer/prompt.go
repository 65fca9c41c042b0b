/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package optimizer

import (
	"encoding/json"
	"fmt"

	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/promptbuilder"
)

// defaultBucketingInstruction is the clustering meta prompt used when a
// project has no operator override.
const defaultBucketingInstruction = `You are analyzing errors flagged by an automated conversation judge.

Judge label: {{judge_label}}
Judge description: {{judge_description}}

The user message contains a JSON array of flagged errors. Each entry has a
conversationId, a turnIndex, the reason the turn was flagged, and the
surrounding conversational context.

Group the errors into a small number of thematic buckets. For each bucket,
provide:
  - a short, specific title naming the failure pattern
  - a description of the underlying cause shared by the bucket's examples
  - the examples belonging to the bucket, each carrying its original
    conversationId, turnIndex, and reason unchanged, plus a concrete
    suggestion for how the assistant should have behaved instead

Every input error must appear in exactly one bucket. Do not invent errors
that are not in the input, and do not modify the reasons you were given.`

var bucketingPrompt = promptbuilder.MustNewPrompt(defaultBucketingInstruction)

// buildBucketingPrompt binds the judge's metadata into the instruction.
// Operator-supplied instructions may omit the placeholders; only the ones
// present are bound.
func buildBucketingPrompt(instruction string, judge *corpus.JudgeAgent) (string, error) {
	prompt := bucketingPrompt
	if instruction != defaultBucketingInstruction {
		var err error
		prompt, err = promptbuilder.ParsePrompt(instruction)
		if err != nil {
			return "", fmt.Errorf("parsing bucketing instruction: %w", err)
		}
	}
	for name, value := range map[string]string{
		"judge_label":       judge.LabelName,
		"judge_description": judge.Description,
	} {
		if !prompt.Binds(name) {
			continue
		}
		bound, err := prompt.BindText(name, value)
		if err != nil {
			return "", err
		}
		prompt = bound
	}
	return prompt.Build()
}

// examplesPayload renders the collected errors as the user-message JSON.
func examplesPayload(collected []collectedError) (string, error) {
	payload, err := json.MarshalIndent(collected, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling collected errors: %w", err)
	}
	return string(payload), nil
}
