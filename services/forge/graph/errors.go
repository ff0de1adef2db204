// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package graph implements the relationship graph engine: a directed
// weighted multigraph of domains whose edges carry evidence-backed
// transferable principles, plus the derived UniversalPrinciple clusters
// recomputed from them.
//
// # Mutation Model
//
// The graph is append/merge-only. AddEdge merges evidence into an existing
// edge or creates a provisional one; nothing ever removes an edge or
// lowers a strength (there is no retraction operation). Because mutation
// is merge-only and readers work on copies, concurrent readers never
// observe a torn edge.
//
// # Determinism
//
// ComputePrinciples is deterministic: identical edge sets always produce
// identical output. Clusters are keyed by principle id, aggregates use
// stable arithmetic over sorted members, and all ties break by lexical
// order.
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrInvalidEdge is returned when an edge is missing its source,
	// target, or principle, or when an evidence weight is outside [0,1].
	ErrInvalidEdge = errors.New("invalid relationship edge")

	// ErrSelfEdge is returned when source and target name the same domain.
	ErrSelfEdge = errors.New("relationship edge cannot be self-referential")
)
