// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package convert implements the bidirectional storage converter between
// generic content blobs and relationship-annotated intelligent units.
//
// Direction is always the caller's choice; the converter carries no policy
// about when content should be intelligent. It only knows how: chunk the
// content, have the oracle tag each chunk, record (offset range, concept
// tag) entries and a semantic summary, keep a single pointer back to the
// generic origin.
package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/praxislabs/praxis/services/forge/blobstore"
	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/oracle"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
)

// Sentinel errors for conversion.
var (
	// ErrUnanalyzableContent means the oracle cannot process the content
	// type behind the ref.
	ErrUnanalyzableContent = errors.New("content cannot be analyzed")

	// ErrUnitNotFound means no intelligent unit matches the given id.
	ErrUnitNotFound = errors.New("intelligent storage unit not found")
)

const (
	prefixUnit = "unit:"

	defaultChunkSize    = 1000
	defaultChunkOverlap = 100

	// tagsPerChunk caps index entries per chunk so one dense chunk
	// cannot drown the relationship index.
	tagsPerChunk = 3
)

// Converter performs generic <-> intelligent conversions.
type Converter struct {
	blobs    blobstore.Store
	analyzer oracle.Analyzer
	db       *badger.DB
	logger   *slog.Logger
	splitter textsplitter.TextSplitter
}

// New creates a converter. db may be nil for a volatile converter whose
// units exist only for the caller's lifetime.
func New(blobs blobstore.Store, analyzer oracle.Analyzer, db *badger.DB, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		blobs:    blobs,
		analyzer: analyzer,
		db:       db,
		logger:   logger,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(defaultChunkSize),
			textsplitter.WithChunkOverlap(defaultChunkOverlap),
		),
	}
}

// ToIntelligent analyzes the content behind genericRef and wraps it in an
// IntelligentStorageUnit. The unit owns only the annotation; the bytes
// stay with the generic store under the original ref.
//
// requirements is passed through to the oracle as analysis context;
// unknown keys are ignored. Returns ErrUnanalyzableContent when the
// oracle reports the content type unsupported.
func (c *Converter) ToIntelligent(ctx context.Context, genericRef string, requirements map[string]string) (*datatypes.IntelligentStorageUnit, error) {
	data, err := c.blobs.Read(ctx, genericRef)
	if err != nil {
		return nil, err
	}
	content := string(data)

	chunks, err := c.splitter.SplitText(content)
	if err != nil {
		return nil, fmt.Errorf("split content: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: ref %s is empty", ErrUnanalyzableContent, genericRef)
	}

	unit := &datatypes.IntelligentStorageUnit{
		ID:               uuid.NewString(),
		SourceGenericRef: genericRef,
		ContentLength:    len(data),
		CreatedAt:        time.Now().UTC(),
	}

	analysisContent := content
	if hints := requirementHints(requirements); hints != "" {
		analysisContent = hints + "\n" + content
	}
	summary, err := c.analyzer.Analyze(ctx, analysisContent, oracle.AnalysisSummary)
	if err != nil {
		return nil, c.wrapOracleError(err, genericRef)
	}
	unit.SemanticSummary = summary.Summary

	cursor := 0
	for _, chunk := range chunks {
		start := strings.Index(content[cursor:], chunk)
		if start < 0 {
			// Overlapping splitters can emit a chunk that starts before
			// the cursor; fall back to a whole-content search.
			start = strings.Index(content, chunk)
			if start < 0 {
				continue
			}
		} else {
			start += cursor
		}
		end := start + len(chunk)
		cursor = start + 1

		analysis, err := c.analyzer.Analyze(ctx, chunk, oracle.AnalysisContentIndex)
		if err != nil {
			return nil, c.wrapOracleError(err, genericRef)
		}
		tags := analysis.Tags
		if len(tags) > tagsPerChunk {
			tags = tags[:tagsPerChunk]
		}
		for _, tag := range tags {
			unit.RelationshipIndex = append(unit.RelationshipIndex, datatypes.IndexEntry{
				OffsetStart: start,
				OffsetEnd:   end,
				ConceptTag:  tag,
			})
		}
	}

	if err := c.saveUnit(unit); err != nil {
		return nil, err
	}
	c.logger.Info("content converted to intelligent storage",
		"unit_id", unit.ID, "ref", genericRef,
		"index_entries", len(unit.RelationshipIndex))
	return unit, nil
}

// ToGeneric discards the unit's annotations and returns the generic ref.
// Never fails for a well-formed unit; the bytes were never moved.
func (c *Converter) ToGeneric(ctx context.Context, unit *datatypes.IntelligentStorageUnit) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if unit == nil || unit.SourceGenericRef == "" {
		return "", fmt.Errorf("%w: unit has no generic origin", ErrUnitNotFound)
	}
	return unit.SourceGenericRef, nil
}

// GetUnit loads a persisted unit by id.
func (c *Converter) GetUnit(ctx context.Context, id string) (*datatypes.IntelligentStorageUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.db == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	var unit datatypes.IntelligentStorageUnit
	err := c.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(prefixUnit + id))
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return fmt.Errorf("%w: %s", ErrUnitNotFound, id)
			}
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &unit)
		})
	})
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (c *Converter) saveUnit(unit *datatypes.IntelligentStorageUnit) error {
	if c.db == nil {
		return nil
	}
	data, err := json.Marshal(unit)
	if err != nil {
		return fmt.Errorf("encode unit: %w", err)
	}
	return c.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(prefixUnit+unit.ID), data)
	})
}

func (c *Converter) wrapOracleError(err error, ref string) error {
	if errors.Is(err, oracle.ErrUnsupported) {
		return fmt.Errorf("%w: ref %s: %v", ErrUnanalyzableContent, ref, err)
	}
	return err
}

func requirementHints(requirements map[string]string) string {
	if len(requirements) == 0 {
		return ""
	}
	var parts []string
	for k, v := range requirements {
		parts = append(parts, k+"="+v)
	}
	// Hint order doesn't matter to the oracle contract but sorted input
	// keeps stub-backed runs reproducible.
	sort.Strings(parts)
	return "analysis requirements: " + strings.Join(parts, ", ")
}
