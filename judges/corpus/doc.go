/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package corpus defines the data model for curated conversation projects:
// conversations with per-turn error ledgers, judge agent configurations,
// and persisted optimization results. It also declares the store interfaces
// that the rest of the system consumes; implementations live elsewhere.
package corpus
