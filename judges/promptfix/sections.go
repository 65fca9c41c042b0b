/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptfix

import (
	"fmt"
	"strings"
)

// sectionDelimiter separates serialized sections in the stored agent
// prompt. It never appears in operator-authored prose.
const sectionDelimiter = "\n\n<<<<<SECTION>>>>>\n\n"

const (
	titleMarker       = "### TITLE: "
	descriptionMarker = "### DESCRIPTION: "
)

// implicitTitle names the single section of an agent prompt that carries no
// section markers.
const implicitTitle = "Master Prompt"

// Section is one titled block of a multi-section agent prompt.
type Section struct {
	Title       string
	Description string
	Content     string
}

// ParseSections splits a stored agent prompt into its sections. A prompt
// with no recognizable markers is one implicit section.
func ParseSections(prompt string) []Section {
	if prompt == "" {
		return nil
	}
	if !strings.Contains(prompt, titleMarker) {
		return []Section{{Title: implicitTitle, Content: prompt}}
	}

	var sections []Section
	for _, block := range strings.Split(prompt, sectionDelimiter) {
		sections = append(sections, parseSection(block))
	}
	return sections
}

func parseSection(block string) Section {
	sec := Section{Title: implicitTitle}
	rest := block
	if after, ok := strings.CutPrefix(rest, titleMarker); ok {
		line, remainder, _ := strings.Cut(after, "\n")
		sec.Title = strings.TrimSpace(line)
		rest = remainder
	}
	if after, ok := strings.CutPrefix(rest, descriptionMarker); ok {
		line, remainder, _ := strings.Cut(after, "\n")
		sec.Description = strings.TrimSpace(line)
		rest = remainder
	}
	sec.Content = strings.TrimPrefix(rest, "\n")
	return sec
}

// SerializeSections renders sections back into the stored form. A single
// implicit section round-trips to its bare content.
func SerializeSections(sections []Section) string {
	if len(sections) == 1 && sections[0].Title == implicitTitle && sections[0].Description == "" {
		return sections[0].Content
	}
	blocks := make([]string, 0, len(sections))
	for _, sec := range sections {
		var b strings.Builder
		fmt.Fprintf(&b, "%s%s\n", titleMarker, sec.Title)
		if sec.Description != "" {
			fmt.Fprintf(&b, "%s%s\n", descriptionMarker, sec.Description)
		}
		b.WriteString("\n")
		b.WriteString(sec.Content)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, sectionDelimiter)
}
