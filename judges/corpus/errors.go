/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package corpus

import "errors"

var (
	// ErrNotFound indicates a referenced project, conversation, judge, turn,
	// or label does not exist. It is surfaced immediately and never retried.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a judge or request is misconfigured (for
	// example a multi-label judge without a labels schema). It is rejected
	// before any network call is made.
	ErrValidation = errors.New("validation failed")
)
