/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package corpus

import "context"

// ProjectStore is the logical read/write contract for project persistence.
// Core code always read-modify-writes the full Project it loaded; the store
// must not clobber unrelated fields written by other callers.
type ProjectStore interface {
	// LoadProject returns the project or ErrNotFound.
	LoadProject(ctx context.Context, id string) (*Project, error)

	// SaveProject persists the full project document.
	SaveProject(ctx context.Context, project *Project) error

	// ListProjects returns all projects.
	ListProjects(ctx context.Context) ([]*Project, error)

	// DeleteProject removes the project or returns ErrNotFound.
	DeleteProject(ctx context.Context, id string) error
}

// JudgeStore is the logical contract for the judge registry.
type JudgeStore interface {
	// Judge returns the judge or ErrNotFound.
	Judge(ctx context.Context, id string) (*JudgeAgent, error)

	// SaveJudge validates and persists the judge, creating or replacing it.
	SaveJudge(ctx context.Context, judge *JudgeAgent) error

	// ListJudges returns all registered judges.
	ListJudges(ctx context.Context) ([]*JudgeAgent, error)

	// DeleteJudge removes the judge or returns ErrNotFound.
	DeleteJudge(ctx context.Context, id string) error
}
