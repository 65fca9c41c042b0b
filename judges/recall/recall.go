/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package recall compares manual ground-truth labels against automatic
// judge findings, producing per-label true-positive / false-negative
// statistics. Conversations without manual labelling are excluded entirely:
// recall is undefined without ground truth, not zero.
package recall

import (
	"chainguard.dev/convojudge/judges/corpus"
	"chainguard.dev/convojudge/judges/turns"
)

// LabelStats aggregates detection statistics for one label.
type LabelStats struct {
	// Recall is TP / Total, or 0 when Total is 0.
	Recall float64 `json:"recall"`
	TP     int     `json:"tp"`
	FN     int     `json:"fn"`
	Total  int     `json:"total"`
}

// Analyze computes per-label recall over every manually labelled
// conversation in the project. For each manual label at an assistant turn,
// the label counts a true positive if any automatic error at that turn
// shares the label, a false negative otherwise.
func Analyze(project *corpus.Project) map[string]*LabelStats {
	stats := make(map[string]*LabelStats)

	for _, conv := range project.Conversations {
		if !conv.ManuallyLabelled || len(conv.ManualLabels) == 0 {
			continue
		}

		for turn := 0; turn < turns.Count(conv.Messages); turn++ {
			for _, label := range conv.ManualLabels[turn] {
				s, ok := stats[label]
				if !ok {
					s = &LabelStats{}
					stats[label] = s
				}
				s.Total++
				if detected(conv.TurnErrors[turn], label) {
					s.TP++
				} else {
					s.FN++
				}
			}
		}
	}

	for _, s := range stats {
		if s.Total > 0 {
			s.Recall = float64(s.TP) / float64(s.Total)
		}
	}
	return stats
}

func detected(errs []corpus.TurnError, label string) bool {
	for _, e := range errs {
		if e.Label == label {
			return true
		}
	}
	return false
}
