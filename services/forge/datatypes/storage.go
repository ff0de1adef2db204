// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// IndexEntry annotates a byte range of generic content with a concept tag.
type IndexEntry struct {
	OffsetStart int    `json:"offset_start"`
	OffsetEnd   int    `json:"offset_end"`
	ConceptTag  string `json:"concept_tag"`
}

// IntelligentStorageUnit wraps one generic content blob with relationship
// annotations. The unit owns the annotation, not the underlying bytes;
// those stay with the generic storage collaborator under SourceGenericRef.
//
// Converting intelligent -> generic is lossy only in annotation: the
// re-derived generic content must be semantically equivalent to the origin
// (same byte length, same concept tags on re-analysis), though raw bytes
// may differ after re-serialization.
type IntelligentStorageUnit struct {
	ID                string       `json:"id"`
	SourceGenericRef  string       `json:"source_generic_ref"`
	RelationshipIndex []IndexEntry `json:"relationship_index"`
	SemanticSummary   string       `json:"semantic_summary"`
	ContentLength     int          `json:"content_length"`
	CreatedAt         time.Time    `json:"created_at"`
}

// ConceptTags returns the distinct concept tags in the relationship index,
// in first-appearance order.
func (u *IntelligentStorageUnit) ConceptTags() []string {
	seen := make(map[string]struct{}, len(u.RelationshipIndex))
	var tags []string
	for _, e := range u.RelationshipIndex {
		if _, ok := seen[e.ConceptTag]; ok {
			continue
		}
		seen[e.ConceptTag] = struct{}{}
		tags = append(tags, e.ConceptTag)
	}
	return tags
}

// ConvertDirection selects which way a storage conversion runs.
type ConvertDirection string

const (
	DirectionToIntelligent ConvertDirection = "to_intelligent"
	DirectionToGeneric     ConvertDirection = "to_generic"
)
