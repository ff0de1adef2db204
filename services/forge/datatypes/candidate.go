// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// CandidateState is the discovery pipeline's per-candidate state machine:
// Discovered -> Evaluated -> {Approved, Rejected}. Approved and Rejected are
// terminal; a candidate is consumed exactly once.
type CandidateState string

const (
	CandidateDiscovered CandidateState = "discovered"
	CandidateEvaluated  CandidateState = "evaluated"
	CandidateApproved   CandidateState = "approved"
	CandidateRejected   CandidateState = "rejected"
)

// Terminal reports whether the state admits no further transitions.
func (s CandidateState) Terminal() bool {
	return s == CandidateApproved || s == CandidateRejected
}

// DiscoveryCandidate is an externally sourced, not-yet-approved methodology
// proposal moving through the discovery pipeline.
//
// The pipeline evaluates candidates but never decides them; the terminal
// Approved/Rejected verdict always comes from an external policy or human
// gate.
type DiscoveryCandidate struct {
	ID                 string      `json:"id"`
	RawSource          string      `json:"raw_source"`
	DomainTags         []DomainTag `json:"domain_tags"`
	ExtractedProcedure []Step      `json:"extracted_procedure,omitempty"`

	// UniquenessScore in [0,1]: 1 means nothing like it exists among the
	// Approved methodologies of the same domain.
	UniquenessScore float64 `json:"uniqueness_score"`

	// IntegrationFeasibilityScore in [0,1]: fraction of the candidate's
	// domain tags already known to the relationship graph.
	IntegrationFeasibilityScore float64 `json:"integration_feasibility_score"`

	State        CandidateState `json:"state"`
	RejectReason string         `json:"reject_reason,omitempty"`

	// MethodologyID is set on approval: the store id of the methodology
	// minted from the extracted procedure.
	MethodologyID string    `json:"methodology_id,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
	EvaluatedAt   time.Time `json:"evaluated_at,omitzero"`
	DecidedAt     time.Time `json:"decided_at,omitzero"`
}
