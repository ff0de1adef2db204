// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
)

const (
	prefixEdge = "edge:"
	prefixELog = "elog:"

	// DefaultStrengthThreshold is the minimum cluster strength for a
	// derived principle.
	DefaultStrengthThreshold = 0.6

	// DefaultMinEvidence is the minimum total evidence count for a
	// derived principle.
	DefaultMinEvidence = 2
)

// Options tunes principle derivation.
type Options struct {
	StrengthThreshold float64
	MinEvidence       uint32
}

// DefaultOptions returns the standard derivation thresholds.
func DefaultOptions() Options {
	return Options{
		StrengthThreshold: DefaultStrengthThreshold,
		MinEvidence:       DefaultMinEvidence,
	}
}

type edgeKey struct {
	src datatypes.DomainTag
	dst datatypes.DomainTag
	pid datatypes.PrincipleID
}

func (k edgeKey) storageKey() []byte {
	return fmt.Appendf(nil, "%s%s:%s:%s", prefixEdge, k.src, k.dst, k.pid)
}

// edgeState is the persisted per-edge record. WeightSum/EvidenceCount give
// the running weighted mean; Strength additionally never decreases.
type edgeState struct {
	datatypes.RelationshipEdge
	WeightSum float64 `json:"weight_sum"`
}

// deltaEntry is one append-only edge-delta log record. The log is the
// graph's durable history; the edge: keys are its snapshot.
type deltaEntry struct {
	Source    datatypes.DomainTag   `json:"source"`
	Target    datatypes.DomainTag   `json:"target"`
	Principle datatypes.PrincipleID `json:"principle"`
	Weights   []float64             `json:"weights"`
	At        time.Time             `json:"at"`
}

// Engine maintains the relationship graph in memory, mirrored to the forge
// database when one is supplied. A nil db gives a volatile engine (tests).
//
// Thread Safety: all methods are safe for concurrent use.
type Engine struct {
	db     *badger.DB
	logger *slog.Logger
	opts   Options

	mu    sync.RWMutex
	edges map[edgeKey]*edgeState

	// Derived data, rebuilt whenever the edge set changed.
	dirty          bool
	principles     []datatypes.UniversalPrinciple
	clusterDomains map[datatypes.PrincipleID]map[datatypes.DomainTag]struct{}
}

// NewEngine creates an engine, reloading any persisted edge snapshot.
func NewEngine(db *badger.DB, logger *slog.Logger, opts Options) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.StrengthThreshold <= 0 {
		opts.StrengthThreshold = DefaultStrengthThreshold
	}
	if opts.MinEvidence == 0 {
		opts.MinEvidence = DefaultMinEvidence
	}
	e := &Engine{
		db:     db,
		logger: logger,
		opts:   opts,
		edges:  make(map[edgeKey]*edgeState),
		dirty:  true,
	}
	if db != nil {
		if err := e.load(); err != nil {
			return nil, err
		}
	}
	edgeCountGauge.Set(float64(len(e.edges)))
	return e, nil
}

func (e *Engine) load() error {
	return e.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.IteratorOptions{
			Prefix:         []byte(prefixEdge),
			PrefetchValues: true,
			PrefetchSize:   64,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var st edgeState
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &st)
			}); err != nil {
				return fmt.Errorf("decode edge record: %w", err)
			}
			k := edgeKey{src: st.SourceDomain, dst: st.TargetDomain, pid: st.Principle}
			e.edges[k] = &st
		}
		return nil
	})
}

// AddEdge merges evidence into the (source, target, principle) edge,
// creating a provisional edge when none exists. Zero weights means
// "register the edge without evidence"; such provisional edges stay
// excluded from derivation until evidence arrives.
//
// Strength is monotone non-decreasing: it is the running weighted mean of
// all evidence, floored at its previous value.
func (e *Engine) AddEdge(ctx context.Context, source, target datatypes.DomainTag, principle datatypes.PrincipleID, weights ...float64) (*datatypes.RelationshipEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if source == "" || target == "" || principle == "" {
		return nil, fmt.Errorf("%w: source, target and principle are required", ErrInvalidEdge)
	}
	if source == target {
		return nil, fmt.Errorf("%w: %s", ErrSelfEdge, source)
	}
	for _, w := range weights {
		if w < 0 || w > 1 {
			return nil, fmt.Errorf("%w: evidence weight %v outside [0,1]", ErrInvalidEdge, w)
		}
	}

	k := edgeKey{src: source, dst: target, pid: principle}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.edges[k]
	if !ok {
		st = &edgeState{RelationshipEdge: datatypes.RelationshipEdge{
			SourceDomain: source,
			TargetDomain: target,
			Principle:    principle,
		}}
	}
	next := *st
	for _, w := range weights {
		next.WeightSum += w
		next.EvidenceCount++
	}
	if next.EvidenceCount > 0 {
		mean := next.WeightSum / float64(next.EvidenceCount)
		if mean > next.Strength {
			next.Strength = mean
		}
	}
	next.UpdatedAt = time.Now().UTC()

	if e.db != nil {
		data, err := json.Marshal(&next)
		if err != nil {
			return nil, fmt.Errorf("encode edge: %w", err)
		}
		entry, err := json.Marshal(&deltaEntry{
			Source: source, Target: target, Principle: principle,
			Weights: weights, At: next.UpdatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("encode delta entry: %w", err)
		}
		logKey := fmt.Appendf(nil, "%s%020d:%s", prefixELog, next.UpdatedAt.UnixNano(), uuid.NewString())
		err = e.db.Update(func(txn *badgerdb.Txn) error {
			if err := txn.Set(k.storageKey(), data); err != nil {
				return err
			}
			return txn.Set(logKey, entry)
		})
		if err != nil {
			return nil, fmt.Errorf("persist edge: %w", err)
		}
	}

	e.edges[k] = &next
	e.dirty = true
	evidenceTotal.Add(float64(len(weights)))
	edgeCountGauge.Set(float64(len(e.edges)))

	edge := next.RelationshipEdge
	return &edge, nil
}

// Edges returns a copy of the current edge set, ordered by
// (principle, source, target).
func (e *Engine) Edges() []datatypes.RelationshipEdge {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]datatypes.RelationshipEdge, 0, len(e.edges))
	for _, st := range e.edges {
		out = append(out, st.RelationshipEdge)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Principle != out[j].Principle {
			return out[i].Principle < out[j].Principle
		}
		if out[i].SourceDomain != out[j].SourceDomain {
			return out[i].SourceDomain < out[j].SourceDomain
		}
		return out[i].TargetDomain < out[j].TargetDomain
	})
	return out
}

// ComputePrinciples recomputes the derived UniversalPrinciple set when the
// edge set changed since the last call, otherwise returns the cached
// result. Output is fully deterministic for a given edge set: stable
// grouping, stable arithmetic order, lexical tie-breaking by principle id.
func (e *Engine) ComputePrinciples(ctx context.Context) ([]datatypes.UniversalPrinciple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dirty {
		start := time.Now()
		e.recomputeLocked()
		recomputeDuration.Observe(time.Since(start).Seconds())
		principleCountGauge.Set(float64(len(e.principles)))
		e.dirty = false
	}

	out := make([]datatypes.UniversalPrinciple, len(e.principles))
	copy(out, e.principles)
	return out, nil
}

func (e *Engine) recomputeLocked() {
	// Sort keys first so every aggregate is accumulated in the same order
	// on every run.
	keys := make([]edgeKey, 0, len(e.edges))
	for k := range e.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pid != keys[j].pid {
			return keys[i].pid < keys[j].pid
		}
		if keys[i].src != keys[j].src {
			return keys[i].src < keys[j].src
		}
		return keys[i].dst < keys[j].dst
	})

	type cluster struct {
		weightSum   float64
		count       uint32
		sourceCount map[datatypes.DomainTag]uint32
		targets     map[datatypes.DomainTag]struct{}
		domains     map[datatypes.DomainTag]struct{}
	}
	clusters := make(map[datatypes.PrincipleID]*cluster)
	var order []datatypes.PrincipleID

	for _, k := range keys {
		st := e.edges[k]
		if st.Provisional() {
			continue
		}
		c, ok := clusters[k.pid]
		if !ok {
			c = &cluster{
				sourceCount: make(map[datatypes.DomainTag]uint32),
				targets:     make(map[datatypes.DomainTag]struct{}),
				domains:     make(map[datatypes.DomainTag]struct{}),
			}
			clusters[k.pid] = c
			order = append(order, k.pid)
		}
		c.weightSum += st.WeightSum
		c.count += st.EvidenceCount
		c.sourceCount[k.src] += st.EvidenceCount
		c.targets[k.dst] = struct{}{}
		c.domains[k.src] = struct{}{}
		c.domains[k.dst] = struct{}{}
	}

	e.principles = e.principles[:0]
	e.clusterDomains = make(map[datatypes.PrincipleID]map[datatypes.DomainTag]struct{})

	for _, pid := range order {
		c := clusters[pid]
		if c.count < e.opts.MinEvidence {
			continue
		}
		strength := c.weightSum / float64(c.count)
		if strength < e.opts.StrengthThreshold {
			continue
		}

		origin := datatypes.DomainTag("")
		var originCount uint32
		for src, n := range c.sourceCount {
			if n > originCount || (n == originCount && (origin == "" || src < origin)) {
				origin, originCount = src, n
			}
		}

		applicable := make([]datatypes.DomainTag, 0, len(c.targets))
		for t := range c.targets {
			applicable = append(applicable, t)
		}
		sort.Slice(applicable, func(i, j int) bool { return applicable[i] < applicable[j] })

		e.principles = append(e.principles, datatypes.UniversalPrinciple{
			ID:                pid,
			Description:       fmt.Sprintf("principle %s transfers from %s", pid, origin),
			OriginDomain:      origin,
			ApplicableDomains: applicable,
			Strength:          strength,
			EvidenceCount:     c.count,
		})
		e.clusterDomains[pid] = c.domains
	}
	// order was built from sorted keys, so principles are already sorted
	// by id; keep the explicit sort as the documented tie-break contract.
	sort.Slice(e.principles, func(i, j int) bool { return e.principles[i].ID < e.principles[j].ID })
}

// QueryTransfer returns the derived principles that apply to target and
// whose cluster touches source. Results are copies in lexical id order.
func (e *Engine) QueryTransfer(ctx context.Context, source, target datatypes.DomainTag) ([]datatypes.UniversalPrinciple, error) {
	all, err := e.ComputePrinciples(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []datatypes.UniversalPrinciple
	for _, p := range all {
		applies := false
		for _, d := range p.ApplicableDomains {
			if d == target {
				applies = true
				break
			}
		}
		if !applies {
			continue
		}
		if domains, ok := e.clusterDomains[p.ID]; ok {
			if _, touches := domains[source]; touches {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// Strength returns the current strength and evidence count for one edge,
// or false when the edge does not exist.
func (e *Engine) Strength(source, target datatypes.DomainTag, principle datatypes.PrincipleID) (float64, uint32, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.edges[edgeKey{src: source, dst: target, pid: principle}]
	if !ok {
		return 0, 0, false
	}
	return st.Strength, st.EvidenceCount, true
}

// KnowsDomain reports whether the domain appears anywhere in the graph.
// The discovery pipeline uses this for integration-feasibility scoring.
func (e *Engine) KnowsDomain(tag datatypes.DomainTag) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for k := range e.edges {
		if k.src == tag || k.dst == tag {
			return true
		}
	}
	return false
}
