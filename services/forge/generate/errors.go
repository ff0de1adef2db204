// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package generate implements the optimizer generator: it assembles one of
// the five optimizer kinds from approved methodologies and derived
// cross-domain principles, validates the result, and caches it keyed by
// (kind, target consumer, requirement hash).
//
// Generation never mutates the methodology store or the relationship
// graph; its only side effect is an append-only generation-event record.
// A failed generation leaves nothing in the cache.
package generate

import "errors"

// Sentinel errors for optimizer generation.
var (
	// ErrInsufficientMethodology means no Approved methodology matched
	// the request's requirement tags.
	ErrInsufficientMethodology = errors.New("no approved methodology satisfies the request")

	// ErrUnvalidatedPrinciple means an embedded principle fell below the
	// strength threshold.
	ErrUnvalidatedPrinciple = errors.New("embedded principle below strength threshold")

	// ErrUnknownKind means the request named a kind outside the closed
	// optimizer-kind set.
	ErrUnknownKind = errors.New("unknown optimizer kind")
)
