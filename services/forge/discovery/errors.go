// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package discovery runs the methodology discovery pipeline: raw candidate
// material comes in over HTTP or a watched drop directory, gets evaluated
// for uniqueness and integration feasibility, and waits for an external
// verdict. The pipeline never approves anything on its own.
//
// Candidate failures are isolated: one candidate timing out or erroring
// never affects the evaluation of any other candidate.
package discovery

import "errors"

// Sentinel errors for the discovery pipeline.
var (
	// ErrCandidateNotFound means no candidate carries the given id.
	ErrCandidateNotFound = errors.New("discovery: candidate not found")

	// ErrAlreadyDecided means the candidate reached a terminal state and
	// cannot be evaluated or decided again.
	ErrAlreadyDecided = errors.New("discovery: candidate already decided")

	// ErrNotEvaluated means a verdict arrived for a candidate that has
	// not finished evaluation.
	ErrNotEvaluated = errors.New("discovery: candidate not yet evaluated")

	// ErrEvaluationTimeout means evaluation exceeded its per-candidate
	// deadline. The candidate stays Discovered; re-running evaluation is
	// safe.
	ErrEvaluationTimeout = errors.New("discovery: evaluation timed out")
)
