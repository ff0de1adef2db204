// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// PrincipleID identifies a transferable principle claim, e.g.
// "redundancy-improves-resilience".
type PrincipleID string

// RelationshipEdge is a scored, evidence-backed claim that a principle from
// one domain transfers to another.
//
// Strength is in [0,1] and only moves through recorded evidence; the graph
// engine merges evidence, it never accepts a hand-set strength. Edges with
// EvidenceCount == 0 are provisional and excluded from optimizer generation.
type RelationshipEdge struct {
	SourceDomain  DomainTag   `json:"source_domain"`
	TargetDomain  DomainTag   `json:"target_domain"`
	Principle     PrincipleID `json:"principle"`
	Strength      float64     `json:"strength"`
	EvidenceCount uint32      `json:"evidence_count"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Provisional reports whether the edge has no recorded evidence yet.
func (e *RelationshipEdge) Provisional() bool {
	return e.EvidenceCount == 0
}

// UniversalPrinciple is derived read-only data: a cluster of relationship
// edges above the strength threshold, recomputed on every graph update and
// never directly mutated.
type UniversalPrinciple struct {
	ID                PrincipleID `json:"id"`
	Description       string      `json:"description,omitempty"`
	OriginDomain      DomainTag   `json:"origin_domain"`
	ApplicableDomains []DomainTag `json:"applicable_domains"`
	Strength          float64     `json:"strength"`
	EvidenceCount     uint32      `json:"evidence_count"`
}

// TouchesDomain reports whether the principle's cluster involves tag as
// origin or as an applicable target.
func (p *UniversalPrinciple) TouchesDomain(tag DomainTag) bool {
	if p.OriginDomain == tag {
		return true
	}
	for _, d := range p.ApplicableDomains {
		if d == tag {
			return true
		}
	}
	return false
}
