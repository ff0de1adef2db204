// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generate

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
	"github.com/praxislabs/praxis/services/forge/graph"
	"github.com/praxislabs/praxis/services/forge/oracle"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
	"github.com/praxislabs/praxis/services/forge/store"
)

// Key layout (see the storage/badger package doc):
//
//	opt:<cache_key>           -> Optimizer JSON (durable cache tier)
//	optidx:<meth_id>:<key>    -> empty; reverse index for invalidation
//	gev:<nano>:<uuid>         -> GenerationEvent JSON (append-only)
const (
	prefixOpt    = "opt:"
	prefixOptIdx = "optidx:"
	prefixGev    = "gev:"
)

// DefaultCacheSize bounds the in-memory optimizer cache.
const DefaultCacheSize = 256

// Config tunes the generator.
type Config struct {
	// CacheSize is the in-memory cache capacity. Zero means
	// DefaultCacheSize.
	CacheSize int

	// StrengthThreshold is the minimum strength an embedded principle
	// must carry to validate. Zero means the graph engine's default.
	StrengthThreshold float64
}

// Generator assembles, validates and caches optimizer packages.
//
// Caching is two tiers: an in-memory LRU in front of the opt: table in the
// forge database. Both tiers are invalidated when a status change commits
// for any methodology an optimizer embeds; the durable tier makes cached
// optimizers survive a restart.
//
// Thread Safety: all methods are safe for concurrent use.
type Generator struct {
	meths    *store.Store
	graph    *graph.Engine
	analyzer oracle.Analyzer
	db       *badger.DB
	logger   *slog.Logger
	cfg      Config

	mu      sync.Mutex
	cache   *lruCache[string, *datatypes.Optimizer]
	indexed map[string][]string // methodology id -> cache keys embedding it
}

// New creates a Generator and registers it for store status notifications.
func New(meths *store.Store, g *graph.Engine, analyzer oracle.Analyzer, db *badger.DB, logger *slog.Logger, cfg Config) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.StrengthThreshold <= 0 {
		cfg.StrengthThreshold = graph.DefaultStrengthThreshold
	}
	gen := &Generator{
		meths:    meths,
		graph:    g,
		analyzer: analyzer,
		db:       db,
		logger:   logger,
		cfg:      cfg,
		cache:    newLRUCache[string, *datatypes.Optimizer](cfg.CacheSize),
		indexed:  make(map[string][]string),
	}
	meths.OnStatusChange(gen.invalidate)
	return gen
}

// Generate returns a validated optimizer for the request, from cache when
// an identical (kind, consumer, requirements) request already produced one.
//
// Generation reads the store and the graph but never writes them; the only
// side effects are the cache entry and an append-only generation event.
// Failed generations leave no cache entry.
func (g *Generator) Generate(ctx context.Context, req datatypes.OptimizerRequest) (*datatypes.Optimizer, error) {
	start := time.Now()

	strat, err := strategyFor(req.Kind)
	if err != nil {
		return nil, err
	}
	if req.TargetConsumer == "" {
		return nil, fmt.Errorf("%w: empty target consumer", ErrUnknownKind)
	}
	if len(req.RequirementTags) == 0 {
		return nil, fmt.Errorf("%w: no requirement tags", ErrInsufficientMethodology)
	}
	if req.MaxPayloadSize == 0 {
		return nil, fmt.Errorf("invalid request: zero payload budget")
	}

	key := req.CacheKey()
	if opt := g.lookup(key); opt != nil {
		cacheHitsTotal.Inc()
		g.recordEvent(&datatypes.GenerationEvent{
			OptimizerID:    opt.ID,
			Kind:           req.Kind,
			TargetConsumer: req.TargetConsumer,
			CacheHit:       true,
			Duration:       time.Since(start),
			At:             time.Now().UTC(),
		})
		return opt, nil
	}

	opt, err := g.build(ctx, req, strat)
	outcome := "ok"
	ev := &datatypes.GenerationEvent{
		Kind:           req.Kind,
		TargetConsumer: req.TargetConsumer,
		Duration:       time.Since(start),
		At:             time.Now().UTC(),
	}
	if err != nil {
		outcome = "error"
		ev.Failure = err.Error()
	} else {
		ev.OptimizerID = opt.ID
		if opt.Validation.Degraded {
			outcome = "degraded"
		}
	}
	generationsTotal.WithLabelValues(string(req.Kind), outcome).Inc()
	generationDuration.Observe(time.Since(start).Seconds())
	g.recordEvent(ev)
	if err != nil {
		return nil, err
	}

	g.remember(key, opt)
	g.logger.Info("optimizer generated",
		"id", opt.ID, "kind", opt.Kind, "consumer", opt.TargetConsumer,
		"methodologies", len(opt.EmbeddedMethodologies),
		"principles", len(opt.EmbeddedPrinciples),
		"payload_bytes", len(opt.CompressedPayload),
		"degraded", opt.Validation.Degraded)
	return opt, nil
}

func (g *Generator) build(ctx context.Context, req datatypes.OptimizerRequest, strat assemblyStrategy) (*datatypes.Optimizer, error) {
	candidates, err := g.resolveMethodologies(ctx, req.RequirementTags)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: tags %v", ErrInsufficientMethodology, req.RequirementTags)
	}

	principles, err := g.resolvePrinciples(ctx, req.RequirementTags)
	if err != nil {
		return nil, err
	}
	for _, p := range principles {
		if p.Strength < g.cfg.StrengthThreshold {
			return nil, fmt.Errorf("%w: %s at %.3f", ErrUnvalidatedPrinciple, p.ID, p.Strength)
		}
	}

	rankMethodologies(candidates, req.RequirementTags)

	selected, raw, degraded, err := g.fill(candidates, principles, strat, req.MaxPayloadSize)
	if err != nil {
		return nil, err
	}

	compressed, err := g.analyzer.Compress(ctx, raw, req.MaxPayloadSize)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	if uint(len(compressed)) > req.MaxPayloadSize {
		return nil, fmt.Errorf("compressed payload %d exceeds budget %d", len(compressed), req.MaxPayloadSize)
	}
	payloadBytes.Observe(float64(len(compressed)))

	methIDs := make([]string, len(selected))
	for i, m := range selected {
		methIDs[i] = m.ID
	}
	prinIDs := make([]datatypes.PrincipleID, len(principles))
	for i, p := range principles {
		prinIDs[i] = p.ID
	}

	return &datatypes.Optimizer{
		ID:                    uuid.NewString(),
		Kind:                  req.Kind,
		TargetConsumer:        req.TargetConsumer,
		EmbeddedMethodologies: methIDs,
		EmbeddedPrinciples:    prinIDs,
		CompressedPayload:     compressed,
		Validation: datatypes.ValidationResult{
			OK:       true,
			Degraded: degraded,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// resolveMethodologies unions the Approved records across all requirement
// tags, deduplicated by record id.
func (g *Generator) resolveMethodologies(ctx context.Context, tags []datatypes.DomainTag) ([]*datatypes.Methodology, error) {
	seen := make(map[string]struct{})
	var out []*datatypes.Methodology
	for _, tag := range tags {
		it := g.meths.ListByDomain(tag)
		for {
			m, err := it.Next(ctx)
			if err != nil {
				return nil, err
			}
			if m == nil {
				break
			}
			if m.Status != datatypes.StatusApproved {
				continue
			}
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

// resolvePrinciples collects derived principles whose cluster touches any
// requirement tag, deduplicated and in lexical id order.
func (g *Generator) resolvePrinciples(ctx context.Context, tags []datatypes.DomainTag) ([]datatypes.UniversalPrinciple, error) {
	all, err := g.graph.ComputePrinciples(ctx)
	if err != nil {
		return nil, err
	}
	var out []datatypes.UniversalPrinciple
	for _, p := range all {
		for _, tag := range tags {
			if p.TouchesDomain(tag) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// rankMethodologies orders candidates by requirement coverage, then by
// provenance recency, then by (name, version) for a stable total order.
func rankMethodologies(ms []*datatypes.Methodology, tags []datatypes.DomainTag) {
	coverage := func(m *datatypes.Methodology) int {
		n := 0
		for _, t := range tags {
			if m.AppliesTo(t) {
				n++
			}
		}
		return n
	}
	recency := func(m *datatypes.Methodology) time.Time {
		if !m.Provenance.ApprovedAt.IsZero() {
			return m.Provenance.ApprovedAt
		}
		return m.Provenance.DiscoveredAt
	}
	sort.SliceStable(ms, func(i, j int) bool {
		ci, cj := coverage(ms[i]), coverage(ms[j])
		if ci != cj {
			return ci > cj
		}
		ri, rj := recency(ms[i]), recency(ms[j])
		if !ri.Equal(rj) {
			return ri.After(rj)
		}
		if ms[i].Name != ms[j].Name {
			return ms[i].Name < ms[j].Name
		}
		return ms[i].Version > ms[j].Version
	})
}

// fill greedily trims the ranked candidate list until the assembled payload
// fits the budget. The top-ranked methodology always stays in, even when it
// alone overshoots; compression gets a chance to close the gap. Degraded is
// set whenever a candidate was dropped or the single survivor still
// overshoots before compression.
func (g *Generator) fill(ranked []*datatypes.Methodology, ps []datatypes.UniversalPrinciple, strat assemblyStrategy, budget uint) ([]*datatypes.Methodology, []byte, bool, error) {
	selected := ranked
	degraded := false
	for {
		body, err := strat.assemble(selected, ps)
		if err != nil {
			return nil, nil, false, err
		}
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, nil, false, fmt.Errorf("encode payload: %w", err)
		}
		if uint(len(raw)) <= budget {
			return selected, raw, degraded, nil
		}
		if len(selected) == 1 {
			return selected, raw, true, nil
		}
		selected = selected[:len(selected)-1]
		degraded = true
	}
}

// lookup checks the LRU, then the durable opt: tier, promoting durable hits
// into memory.
func (g *Generator) lookup(key string) *datatypes.Optimizer {
	g.mu.Lock()
	defer g.mu.Unlock()

	if opt, ok := g.cache.Get(key); ok {
		return opt
	}

	var opt datatypes.Optimizer
	err := g.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(prefixOpt + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &opt)
		})
	})
	if err != nil {
		return nil
	}
	g.cache.Set(key, &opt)
	g.indexLocked(key, &opt)
	return &opt
}

func (g *Generator) remember(key string, opt *datatypes.Optimizer) {
	data, err := json.Marshal(opt)
	if err == nil {
		err = g.db.Update(func(txn *badgerdb.Txn) error {
			if err := txn.Set([]byte(prefixOpt+key), data); err != nil {
				return err
			}
			for _, id := range opt.EmbeddedMethodologies {
				if err := txn.Set([]byte(prefixOptIdx+id+":"+key), nil); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err != nil {
		// The in-memory tier still serves; the entry just will not
		// survive a restart.
		g.logger.Warn("persist cached optimizer failed", "key", key, "error", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache.Set(key, opt)
	g.indexLocked(key, opt)
}

func (g *Generator) indexLocked(key string, opt *datatypes.Optimizer) {
	for _, id := range opt.EmbeddedMethodologies {
		g.indexed[id] = append(g.indexed[id], key)
	}
}

// invalidate drops every cached optimizer embedding the changed
// methodology, from both tiers. The durable optidx: index also covers
// entries written before the current process started. Runs on the store's
// notification path.
func (g *Generator) invalidate(id, name string, from, to datatypes.MethodologyStatus) {
	stale := make(map[string]struct{})

	g.mu.Lock()
	for _, key := range g.indexed[id] {
		stale[key] = struct{}{}
	}
	delete(g.indexed, id)
	g.mu.Unlock()

	err := g.db.Update(func(txn *badgerdb.Txn) error {
		prefix := []byte(prefixOptIdx + id + ":")
		it := txn.NewIterator(badgerdb.IteratorOptions{Prefix: prefix})
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().KeyCopy(nil)
			stale[string(k[len(prefix):])] = struct{}{}
		}
		it.Close()
		for key := range stale {
			if err := txn.Delete([]byte(prefixOpt + key)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(prefixOptIdx + id + ":" + key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		g.logger.Warn("drop durable optimizer cache entries failed",
			"methodology", id, "error", err)
	}

	g.mu.Lock()
	for key := range stale {
		g.cache.Delete(key)
	}
	g.mu.Unlock()

	if len(stale) == 0 {
		return
	}
	invalidationsTotal.Add(float64(len(stale)))
	g.logger.Info("optimizer cache invalidated",
		"methodology", name, "from", from, "to", to, "entries", len(stale))
}

// recordEvent appends one generation event. Event write failures are
// logged, never surfaced; effectiveness tracking must not fail generation.
func (g *Generator) recordEvent(ev *datatypes.GenerationEvent) {
	data, err := json.Marshal(ev)
	if err == nil {
		key := fmt.Appendf(nil, "%s%020d:%s", prefixGev, ev.At.UnixNano(), uuid.NewString())
		err = g.db.Update(func(txn *badgerdb.Txn) error {
			return txn.Set(key, data)
		})
	}
	if err != nil {
		g.logger.Warn("record generation event failed", "error", err)
	}
}

// Events returns up to limit generation events in append order. A zero
// limit means no bound.
func (g *Generator) Events(ctx context.Context, limit int) ([]datatypes.GenerationEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []datatypes.GenerationEvent
	err := g.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.IteratorOptions{
			Prefix:         []byte(prefixGev),
			PrefetchValues: true,
			PrefetchSize:   64,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(out) >= limit {
				return nil
			}
			var ev datatypes.GenerationEvent
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &ev)
			}); err != nil {
				return fmt.Errorf("decode generation event: %w", err)
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
