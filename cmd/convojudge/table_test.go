/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"strings"
	"testing"
)

func TestReportTableRendersColumns(t *testing.T) {
	var buf strings.Builder
	table := newReportTable([]string{"Label", "Recall", "TP", "FN", "Total"}, &buf)
	_ = table.Append([]string{"hallucination", "67%", "2", "1", "3"})
	_ = table.Append([]string{"tone", "100%", "1", "0", "1"})
	if err := table.Render(); err != nil {
		t.Fatalf("Render() unexpected error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Label", "Recall", "hallucination", "67%", "tone", "100%"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}
