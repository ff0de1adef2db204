// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the core domain records shared across the forge
// service: methodologies, relationship edges, optimizers, storage units, and
// discovery candidates, plus the HTTP request/response shapes that carry them.
//
// # Ownership Model
//
// Records returned by the store and graph packages are snapshots. Callers
// may read them freely but must not mutate them; mutation goes through the
// owning component (a new methodology version, a merged edge, a regenerated
// optimizer).
package datatypes

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// DomainTag names an area of knowledge or task specialization,
// e.g. "code-quality" or "biology".
type DomainTag string

// MethodologyStatus is the lifecycle state of a methodology record.
//
// Transitions are strictly forward: Draft -> Approved -> Deprecated.
// An Approved record is immutable; edits create a new version linked to
// its parent.
type MethodologyStatus string

const (
	StatusDraft      MethodologyStatus = "draft"
	StatusApproved   MethodologyStatus = "approved"
	StatusDeprecated MethodologyStatus = "deprecated"
)

// CanTransition reports whether moving from s to next is a legal
// lifecycle transition.
func (s MethodologyStatus) CanTransition(next MethodologyStatus) bool {
	switch s {
	case StatusDraft:
		return next == StatusApproved
	case StatusApproved:
		return next == StatusDeprecated
	default:
		return false
	}
}

// Step is one ordered element of a methodology's procedure.
type Step struct {
	// Ordinal is the 1-based position of the step in the procedure.
	Ordinal int `json:"ordinal"`

	// Instruction is the systematic action this step performs.
	Instruction string `json:"instruction"`

	// ExpectedOutcome describes what a correct execution produces.
	// Optional.
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
}

// Provenance records where a methodology came from and when it moved
// through its lifecycle.
type Provenance struct {
	Source       string    `json:"source"`
	DiscoveredAt time.Time `json:"discovered_at"`
	ApprovedAt   time.Time `json:"approved_at,omitzero"`
}

// Methodology is a named, versioned systematic procedure.
//
// The (Name, Version) pair identifies one record in a version chain.
// ParentVersion links an edited record back to the version it was derived
// from; it is zero for the first version of a name.
type Methodology struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Version         int               `json:"version"`
	ParentVersion   int               `json:"parent_version,omitempty"`
	DomainTags      []DomainTag       `json:"domain_tags"`
	Procedure       []Step            `json:"procedure"`
	QualityCriteria []string          `json:"quality_criteria,omitempty"`
	Applicability   []DomainTag       `json:"applicability,omitempty"`
	Provenance      Provenance        `json:"provenance"`
	Status          MethodologyStatus `json:"status"`
}

// HasDomain reports whether tag appears in the methodology's domain tags.
func (m *Methodology) HasDomain(tag DomainTag) bool {
	for _, t := range m.DomainTags {
		if t == tag {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the methodology transfers to tag, either as an
// origin domain or through its declared applicability set.
func (m *Methodology) AppliesTo(tag DomainTag) bool {
	if m.HasDomain(tag) {
		return true
	}
	for _, t := range m.Applicability {
		if t == tag {
			return true
		}
	}
	return false
}

// ContentHash returns a stable digest over the fields that define the
// methodology's content: domain tags and the procedure. Two versions with
// equal content hashes are duplicates for the purpose of the store's
// duplicate-version check.
func (m *Methodology) ContentHash() string {
	h := sha256.New()
	tags := make([]string, len(m.DomainTags))
	for i, t := range m.DomainTags {
		tags[i] = string(t)
	}
	sort.Strings(tags)
	h.Write([]byte(strings.Join(tags, "\x1f")))
	h.Write([]byte{0})
	for _, s := range m.Procedure {
		h.Write([]byte(s.Instruction))
		h.Write([]byte{0x1f})
		h.Write([]byte(s.ExpectedOutcome))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ProcedureText flattens the procedure into one newline-joined string.
// Used by the discovery pipeline's similarity scoring and by oracle prompts.
func (m *Methodology) ProcedureText() string {
	parts := make([]string, len(m.Procedure))
	for i, s := range m.Procedure {
		parts[i] = s.Instruction
	}
	return strings.Join(parts, "\n")
}
