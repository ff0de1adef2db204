// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// OptimizerKind is the closed set of optimizer package shapes the generator
// can assemble. Each kind maps to one assembly strategy; there are no
// kind-specific type hierarchies.
type OptimizerKind string

const (
	KindCoordination  OptimizerKind = "coordination"
	KindExecution     OptimizerKind = "execution"
	KindConfiguration OptimizerKind = "configuration"
	KindPolicy        OptimizerKind = "policy"
	KindProcessing    OptimizerKind = "processing"
)

// Kinds lists all optimizer kinds in a stable order.
func Kinds() []OptimizerKind {
	return []OptimizerKind{
		KindCoordination, KindExecution, KindConfiguration, KindPolicy, KindProcessing,
	}
}

// ParseKind converts a wire string into an OptimizerKind.
func ParseKind(s string) (OptimizerKind, error) {
	k := OptimizerKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindCoordination, KindExecution, KindConfiguration, KindPolicy, KindProcessing:
		return k, nil
	}
	return "", fmt.Errorf("unknown optimizer kind %q", s)
}

// OptimizerRequest describes what a consumer wants generated.
type OptimizerRequest struct {
	Kind            OptimizerKind `json:"kind"`
	TargetConsumer  string        `json:"target_consumer"`
	RequirementTags []DomainTag   `json:"requirement_tags"`
	MaxPayloadSize  uint          `json:"max_payload_size"`
}

// RequirementHash returns a stable digest over the sorted requirement tags.
// Tag order in the request does not affect caching.
func (r *OptimizerRequest) RequirementHash() string {
	tags := make([]string, len(r.RequirementTags))
	for i, t := range r.RequirementTags {
		tags[i] = string(t)
	}
	sort.Strings(tags)
	sum := sha256.Sum256([]byte(strings.Join(tags, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// CacheKey is the generator's cache key: (kind, target_consumer,
// requirement hash). MaxPayloadSize is deliberately excluded; a request
// that only changes the budget regenerates under a different validation
// outcome, not a different identity.
func (r *OptimizerRequest) CacheKey() string {
	return string(r.Kind) + "|" + r.TargetConsumer + "|" + r.RequirementHash()
}

// ValidationResult records the outcome of optimizer validation.
type ValidationResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`

	// Degraded marks an optimizer that validated but with reduced content
	// (e.g. the payload budget truncated candidate selection). Never set
	// silently; surfaced verbatim to the caller.
	Degraded bool `json:"degraded,omitempty"`
}

// Optimizer is a generated, validated, immutable package of methodologies
// and cross-domain principles for one consumer. Regeneration produces a new
// ID; an existing optimizer is never edited in place.
type Optimizer struct {
	ID                    string           `json:"id"`
	Kind                  OptimizerKind    `json:"kind"`
	TargetConsumer        string           `json:"target_consumer"`
	EmbeddedMethodologies []string         `json:"embedded_methodologies"`
	EmbeddedPrinciples    []PrincipleID    `json:"embedded_principles"`
	CompressedPayload     []byte           `json:"compressed_payload"`
	Validation            ValidationResult `json:"validation"`
	CreatedAt             time.Time        `json:"created_at"`
}

// GenerationEvent is the append-only record emitted for every generation
// attempt, for effectiveness tracking. It never feeds back into the store
// or the graph.
type GenerationEvent struct {
	OptimizerID    string        `json:"optimizer_id,omitempty"`
	Kind           OptimizerKind `json:"kind"`
	TargetConsumer string        `json:"target_consumer"`
	CacheHit       bool          `json:"cache_hit"`
	Failure        string        `json:"failure,omitempty"`
	Duration       time.Duration `json:"duration"`
	At             time.Time     `json:"at"`
}
