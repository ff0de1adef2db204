// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// API request/response shapes for the coordination interface. Binding tags
// are enforced by gin's validator (go-playground/validator); domain-tag and
// ref syntax is additionally checked by pkg/validation before any value
// reaches a storage key or an oracle prompt.

// GenerateOptimizerRequest is the POST /v1/optimizers body.
type GenerateOptimizerRequest struct {
	Kind            string   `json:"kind" binding:"required"`
	TargetConsumer  string   `json:"target_consumer" binding:"required,max=128"`
	RequirementTags []string `json:"requirement_tags" binding:"required,min=1,dive,domaintag"`
	MaxPayloadSize  uint     `json:"max_payload_size" binding:"required,gt=0"`
}

// OptimizerResponse is the generation result returned to the consumer.
// The compressed payload itself travels base64-encoded via the standard
// JSON []byte encoding.
type OptimizerResponse struct {
	OptimizerID            string           `json:"optimizer_id"`
	Kind                   string           `json:"kind"`
	EmbeddedMethodologyIDs []string         `json:"embedded_methodology_ids"`
	EmbeddedPrincipleIDs   []string         `json:"embedded_principle_ids,omitempty"`
	Payload                []byte           `json:"payload,omitempty"`
	Validation             ValidationResult `json:"validation"`
	CacheHit               bool             `json:"cache_hit"`
}

// ConvertRequest is the POST /v1/storage/convert body.
type ConvertRequest struct {
	GenericRef string `json:"generic_ref,omitempty"`
	UnitID     string `json:"unit_id,omitempty"`
	Direction  string `json:"direction" binding:"required,oneof=to_intelligent to_generic"`

	// Requirements optionally narrows the analysis (e.g. which concept
	// families to index). Passed through to the oracle verbatim.
	Requirements map[string]string `json:"requirements,omitempty"`
}

// ConvertResponse carries the result of a storage conversion.
type ConvertResponse struct {
	Ref               string       `json:"ref"`
	UnitID            string       `json:"unit_id,omitempty"`
	RelationshipIndex []IndexEntry `json:"relationship_index,omitempty"`
	SemanticSummary   string       `json:"semantic_summary,omitempty"`
}

// SubmitCandidateRequest is the POST /v1/candidates body.
type SubmitCandidateRequest struct {
	RawSource  string   `json:"raw_source" binding:"required"`
	DomainTags []string `json:"domain_tags" binding:"required,min=1,dive,domaintag"`
}

// SubmitCandidateResponse acknowledges a discovery submission.
type SubmitCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

// CandidateStatusResponse is the GET /v1/candidates/:id body.
type CandidateStatusResponse struct {
	CandidateID                 string  `json:"candidate_id"`
	State                       string  `json:"state"`
	UniquenessScore             float64 `json:"uniqueness_score"`
	IntegrationFeasibilityScore float64 `json:"integration_feasibility_score"`
	RejectReason                string  `json:"reject_reason,omitempty"`
	MethodologyID               string  `json:"methodology_id,omitempty"`
}

// CandidateDecisionRequest is the external approval gate's verdict.
type CandidateDecisionRequest struct {
	Verdict   string `json:"verdict" binding:"required,oneof=approved rejected"`
	DecidedBy string `json:"decided_by" binding:"required,max=128"`
	Reason    string `json:"reason,omitempty"`
}

// TaskStatusResponse reports a long-running workflow's checkpoint progress.
type TaskStatusResponse struct {
	TaskID        string   `json:"task_id"`
	Stage         string   `json:"stage"`
	Done          bool     `json:"done"`
	ArtifactIDs   []string `json:"artifact_ids,omitempty"`
	FailureReason string   `json:"failure_reason,omitempty"`
}

// ErrorResponse is the uniform failure body. Category is one of
// "validation", "conflict", "not_found", "oracle", "internal" - enough for
// a caller to distinguish the error taxonomy without parsing the reason.
type ErrorResponse struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}
