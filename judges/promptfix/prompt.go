/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptfix

import (
	"fmt"
	"strings"

	"chainguard.dev/convojudge/judges/promptbuilder"
)

// defaultFixInstruction is the rewrite meta prompt used when a project has
// no operator override.
const defaultFixInstruction = `You are improving the system prompt of a conversational assistant.

The user message contains example trajectories where the assistant made
mistakes, each followed by feedback describing the error and, where
available, a suggestion for the correct behavior.

Rewrite the prompt below so that the assistant stops making these
mistakes. Requirements:
  - Preserve all structural section markers (lines starting with "###")
    exactly as they appear.
  - Do not remove or weaken instructions unrelated to the reported errors.
  - Respond with the complete rewritten prompt and nothing else: no
    explanation, no diff, no surrounding commentary.

Current prompt:
{{current_prompt}}`

// placeholderInstruction is appended when the prompt carries template
// placeholders that downstream rendering depends on.
const placeholderInstruction = "\n\nThe prompt contains ${...} template variables. Keep every one of them exactly as written; they are substituted at runtime."

var fixPrompt = promptbuilder.MustNewPrompt(defaultFixInstruction)

// buildFixPrompt assembles the rewrite instruction around the current
// prompt text. Operator overrides may declare a {{current_prompt}}
// placeholder; without one the prompt is appended as a trailing block.
func buildFixPrompt(instruction, currentPrompt string) (string, error) {
	prompt := fixPrompt
	if instruction != defaultFixInstruction {
		var err error
		prompt, err = promptbuilder.ParsePrompt(instruction)
		if err != nil {
			return "", fmt.Errorf("parsing fix instruction: %w", err)
		}
	}

	var built string
	if prompt.Binds("current_prompt") {
		bound, err := prompt.BindText("current_prompt", currentPrompt)
		if err != nil {
			return "", err
		}
		built, err = bound.Build()
		if err != nil {
			return "", err
		}
	} else {
		var err error
		built, err = prompt.Build()
		if err != nil {
			return "", err
		}
		built += "\n\nCurrent prompt:\n" + currentPrompt
	}

	if strings.Contains(currentPrompt, "${") {
		built += placeholderInstruction
	}
	return built, nil
}
