// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package oracle wraps the external text-analysis model behind a narrow
// request/response contract. The rest of the system never sees a concrete
// model: it sees Analyze and Compress, a timeout, and two failure modes.
package oracle

import (
	"context"
	"errors"
)

// Sentinel errors for oracle calls.
var (
	// ErrUnsupported means the oracle cannot process the content or
	// analysis type. Never retried.
	ErrUnsupported = errors.New("oracle: unsupported content or analysis type")

	// ErrTimeout means the call exceeded its deadline. Retryable.
	ErrTimeout = errors.New("oracle: call timed out")
)

// AnalysisType selects what the oracle is asked to do with the content.
type AnalysisType string

const (
	// AnalysisContentIndex asks for concept tags over content regions,
	// used by the storage converter.
	AnalysisContentIndex AnalysisType = "content_index"

	// AnalysisMethodologyExtract asks for a step-by-step procedure
	// extracted from raw discovery material.
	AnalysisMethodologyExtract AnalysisType = "methodology_extract"

	// AnalysisSummary asks for a short semantic summary.
	AnalysisSummary AnalysisType = "summary"
)

// RelationshipFinding is one cross-domain transfer claim the oracle
// surfaced while analyzing content.
type RelationshipFinding struct {
	SourceDomain string  `json:"source_domain"`
	TargetDomain string  `json:"target_domain"`
	Principle    string  `json:"principle"`
	Confidence   float64 `json:"confidence"`
}

// Analysis is the oracle's response shape.
type Analysis struct {
	Summary       string                `json:"summary"`
	Tags          []string              `json:"tags"`
	Relationships []RelationshipFinding `json:"relationships,omitempty"`
}

// Analyzer is the analysis-oracle boundary.
//
// Implementations must respect ctx cancellation and deadlines; exceeding a
// deadline surfaces as ErrTimeout, an unprocessable input as
// ErrUnsupported. Anything else is an infrastructure failure.
type Analyzer interface {
	// Analyze inspects content according to the analysis type.
	Analyze(ctx context.Context, content string, kind AnalysisType) (*Analysis, error)

	// Compress reduces payload to at most budget bytes while preserving
	// as much meaning as the backend can. The forge decides what goes in
	// a payload; the oracle decides how the bytes shrink.
	Compress(ctx context.Context, payload []byte, budget uint) ([]byte, error)
}
