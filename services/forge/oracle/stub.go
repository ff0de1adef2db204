// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package oracle

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// StubAnalyzer is a deterministic, offline Analyzer. It powers tests and
// the ORACLE_BACKEND=stub mode: same input, same output, no network.
//
// Tagging is frequency-based keyword extraction; compression is selection
// (keep the byte budget's worth of leading content). Both are crude on
// purpose; the stub exists so every other component can be exercised
// without a model behind it.
type StubAnalyzer struct {
	// MaxTags caps the number of extracted tags. Zero means 8.
	MaxTags int

	// Fail, when set, makes every call return this error (tests).
	Fail error
}

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z\-]{3,}`)

// stopwords that would otherwise dominate frequency tagging.
var stubStopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "into": {}, "then": {},
	"each": {}, "when": {}, "must": {}, "should": {}, "their": {}, "there": {},
	"which": {}, "those": {}, "these": {}, "about": {}, "after": {}, "before": {},
}

// Analyze implements Analyzer.
func (s *StubAnalyzer) Analyze(ctx context.Context, content string, kind AnalysisType) (*Analysis, error) {
	if s.Fail != nil {
		return nil, s.Fail
	}
	if err := ctx.Err(); err != nil {
		return nil, mapTransportError(err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrUnsupported)
	}
	switch kind {
	case AnalysisContentIndex, AnalysisMethodologyExtract, AnalysisSummary:
	default:
		return nil, fmt.Errorf("%w: analysis type %q", ErrUnsupported, kind)
	}

	return &Analysis{
		Summary: firstSentence(content),
		Tags:    s.keywords(content),
	}, nil
}

// Compress implements Analyzer: returns the payload unchanged when it
// fits, otherwise its leading budget bytes.
func (s *StubAnalyzer) Compress(ctx context.Context, payload []byte, budget uint) ([]byte, error) {
	if s.Fail != nil {
		return nil, s.Fail
	}
	if err := ctx.Err(); err != nil {
		return nil, mapTransportError(err)
	}
	if uint(len(payload)) <= budget {
		return payload, nil
	}
	return payload[:budget], nil
}

func firstSentence(content string) string {
	content = strings.TrimSpace(content)
	if i := strings.IndexAny(content, ".\n"); i > 0 {
		content = content[:i]
	}
	if len(content) > 160 {
		content = content[:160]
	}
	return content
}

func (s *StubAnalyzer) keywords(content string) []string {
	limit := s.MaxTags
	if limit <= 0 {
		limit = 8
	}

	freq := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(content), -1) {
		if _, stop := stubStopwords[w]; stop {
			continue
		}
		freq[w]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	// Highest frequency first, lexical within equal frequency, so tagging
	// is reproducible.
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}
