// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package convert

import (
	"context"
	"sort"

	"github.com/praxislabs/praxis/services/forge/oracle"
)

// SemanticallyEquivalent implements the conversion-equivalence check: two
// generic contents are equivalent when they have identical byte length and
// yield the identical concept-tag set on re-analysis. Raw bytes are
// allowed to differ (re-serialization).
func (c *Converter) SemanticallyEquivalent(ctx context.Context, refA, refB string) (bool, error) {
	if refA == refB {
		return true, nil
	}
	a, err := c.blobs.Read(ctx, refA)
	if err != nil {
		return false, err
	}
	b, err := c.blobs.Read(ctx, refB)
	if err != nil {
		return false, err
	}
	if len(a) != len(b) {
		return false, nil
	}

	tagsA, err := c.reanalyzeTags(ctx, string(a))
	if err != nil {
		return false, err
	}
	tagsB, err := c.reanalyzeTags(ctx, string(b))
	if err != nil {
		return false, err
	}
	if len(tagsA) != len(tagsB) {
		return false, nil
	}
	for i := range tagsA {
		if tagsA[i] != tagsB[i] {
			return false, nil
		}
	}
	return true, nil
}

func (c *Converter) reanalyzeTags(ctx context.Context, content string) ([]string, error) {
	analysis, err := c.analyzer.Analyze(ctx, content, oracle.AnalysisContentIndex)
	if err != nil {
		return nil, err
	}
	tags := append([]string(nil), analysis.Tags...)
	sort.Strings(tags)
	return tags, nil
}
