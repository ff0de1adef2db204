// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/graph"
	"github.com/praxislabs/praxis/services/forge/oracle"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
	"github.com/praxislabs/praxis/services/forge/store"
)

// Key layout (see the storage/badger package doc):
//
//	cand:<id> -> DiscoveryCandidate JSON
const prefixCand = "cand:"

// RejectUniqueness is the rejection reason for near-duplicate candidates.
const RejectUniqueness = "uniqueness_score below ceiling"

// Config tunes the discovery pipeline.
type Config struct {
	// SimilarityCeiling is the maximum token-set similarity a candidate
	// may have to any Approved methodology of the same domain. Above it
	// the candidate is rejected during evaluation. Zero means 0.85.
	SimilarityCeiling float64

	// EvaluationTimeout bounds one candidate's evaluation. Zero means
	// 60 seconds.
	EvaluationTimeout time.Duration

	// Workers bounds concurrent evaluations. Zero means 4.
	Workers int64
}

// DefaultConfig returns the standard pipeline tuning.
func DefaultConfig() Config {
	return Config{
		SimilarityCeiling: 0.85,
		EvaluationTimeout: 60 * time.Second,
		Workers:           4,
	}
}

// Pipeline moves discovery candidates through
// Discovered -> Evaluated -> {Approved, Rejected}.
//
// Thread Safety: all methods are safe for concurrent use. Per-candidate
// transitions are serialized by candidate id.
type Pipeline struct {
	db       *badger.DB
	meths    *store.Store
	graph    *graph.Engine
	analyzer oracle.Analyzer
	logger   *slog.Logger
	cfg      Config

	locks sync.Map // candidate id -> *sync.Mutex
}

// New creates a Pipeline on top of an open forge database.
func New(db *badger.DB, meths *store.Store, g *graph.Engine, analyzer oracle.Analyzer, logger *slog.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SimilarityCeiling <= 0 {
		cfg.SimilarityCeiling = 0.85
	}
	if cfg.EvaluationTimeout <= 0 {
		cfg.EvaluationTimeout = 60 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Pipeline{
		db:       db,
		meths:    meths,
		graph:    g,
		analyzer: analyzer,
		logger:   logger,
		cfg:      cfg,
	}
}

func (p *Pipeline) lock(id string) func() {
	v, _ := p.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func candKey(id string) []byte {
	return append([]byte(prefixCand), id...)
}

// Submit registers raw candidate material and returns the new candidate in
// the Discovered state.
func (p *Pipeline) Submit(ctx context.Context, rawSource string, tags []datatypes.DomainTag) (*datatypes.DiscoveryCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawSource) == "" {
		return nil, fmt.Errorf("empty candidate source")
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("candidate needs at least one domain tag")
	}

	cand := &datatypes.DiscoveryCandidate{
		ID:          uuid.NewString(),
		RawSource:   rawSource,
		DomainTags:  tags,
		State:       datatypes.CandidateDiscovered,
		SubmittedAt: time.Now().UTC(),
	}
	if err := p.save(cand); err != nil {
		return nil, err
	}
	candidatesTotal.WithLabelValues(string(cand.State)).Inc()
	p.logger.Info("candidate submitted", "id", cand.ID, "tags", tags)
	return cand, nil
}

// Get returns the candidate with the given id, or ErrCandidateNotFound.
func (p *Pipeline) Get(ctx context.Context, id string) (*datatypes.DiscoveryCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var cand datatypes.DiscoveryCandidate
	err := p.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(candKey(id))
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
			}
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &cand)
		})
	})
	if err != nil {
		return nil, err
	}
	return &cand, nil
}

// List returns candidates in the given state, or all candidates when state
// is empty. Ordered by id.
func (p *Pipeline) List(ctx context.Context, state datatypes.CandidateState) ([]*datatypes.DiscoveryCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*datatypes.DiscoveryCandidate
	err := p.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.IteratorOptions{
			Prefix:         []byte(prefixCand),
			PrefetchValues: true,
			PrefetchSize:   32,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var cand datatypes.DiscoveryCandidate
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &cand)
			}); err != nil {
				return fmt.Errorf("decode candidate: %w", err)
			}
			if state == "" || cand.State == state {
				out = append(out, &cand)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) save(cand *datatypes.DiscoveryCandidate) error {
	data, err := json.Marshal(cand)
	if err != nil {
		return fmt.Errorf("encode candidate: %w", err)
	}
	return p.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(candKey(cand.ID), data)
	})
}

// Evaluate scores one Discovered candidate. A near-duplicate is rejected
// immediately; anything else moves to Evaluated and waits for the external
// verdict. Returns ErrEvaluationTimeout when the per-candidate deadline
// expired, in which case the candidate stays Discovered and the call can
// be retried.
func (p *Pipeline) Evaluate(ctx context.Context, id string) (*datatypes.DiscoveryCandidate, error) {
	unlock := p.lock(id)
	defer unlock()

	cand, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cand.State.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyDecided, id, cand.State)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.EvaluationTimeout)
	defer cancel()

	start := time.Now()
	if err := p.evaluate(ctx, cand); err != nil {
		if errors.Is(err, oracle.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrEvaluationTimeout, id)
		}
		return nil, err
	}
	evaluationDuration.Observe(time.Since(start).Seconds())

	if err := p.save(cand); err != nil {
		return nil, err
	}
	candidatesTotal.WithLabelValues(string(cand.State)).Inc()
	p.logger.Info("candidate evaluated",
		"id", cand.ID, "state", cand.State,
		"uniqueness", cand.UniquenessScore,
		"feasibility", cand.IntegrationFeasibilityScore)
	return cand, nil
}

func (p *Pipeline) evaluate(ctx context.Context, cand *datatypes.DiscoveryCandidate) error {
	// The oracle call gates analyzability; step extraction itself is
	// structural so re-evaluation stays deterministic.
	_, err := p.analyzer.Analyze(ctx, cand.RawSource, oracle.AnalysisMethodologyExtract)
	if err != nil {
		if errors.Is(err, oracle.ErrUnsupported) {
			cand.State = datatypes.CandidateRejected
			cand.RejectReason = "unanalyzable source material"
			now := time.Now().UTC()
			cand.EvaluatedAt, cand.DecidedAt = now, now
			return nil
		}
		return fmt.Errorf("analyze candidate: %w", err)
	}

	cand.ExtractedProcedure = extractSteps(cand.RawSource)
	if len(cand.ExtractedProcedure) == 0 {
		cand.State = datatypes.CandidateRejected
		cand.RejectReason = "no extractable procedure"
		now := time.Now().UTC()
		cand.EvaluatedAt, cand.DecidedAt = now, now
		return nil
	}

	maxSim, err := p.maxSimilarity(ctx, cand)
	if err != nil {
		return err
	}
	cand.UniquenessScore = 1 - maxSim

	known := 0
	for _, tag := range cand.DomainTags {
		if p.graph.KnowsDomain(tag) {
			known++
		}
	}
	cand.IntegrationFeasibilityScore = float64(known) / float64(len(cand.DomainTags))
	cand.EvaluatedAt = time.Now().UTC()

	if maxSim > p.cfg.SimilarityCeiling {
		cand.State = datatypes.CandidateRejected
		cand.RejectReason = RejectUniqueness
		cand.DecidedAt = cand.EvaluatedAt
		return nil
	}
	cand.State = datatypes.CandidateEvaluated
	return nil
}

func (p *Pipeline) maxSimilarity(ctx context.Context, cand *datatypes.DiscoveryCandidate) (float64, error) {
	text := stepsText(cand.ExtractedProcedure)
	maxSim := 0.0
	seen := make(map[string]struct{})
	for _, tag := range cand.DomainTags {
		existing, err := p.meths.ListApprovedByDomain(ctx, tag)
		if err != nil {
			return 0, err
		}
		for _, m := range existing {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			if s := similarity(text, m.ProcedureText()); s > maxSim {
				maxSim = s
			}
		}
	}
	return maxSim, nil
}

// Decide applies the external verdict to an Evaluated candidate. Approval
// mints an Approved methodology from the extracted procedure and links its
// id onto the candidate.
func (p *Pipeline) Decide(ctx context.Context, id string, approve bool, decidedBy, reason string) (*datatypes.DiscoveryCandidate, error) {
	unlock := p.lock(id)
	defer unlock()

	cand, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch cand.State {
	case datatypes.CandidateEvaluated:
	case datatypes.CandidateDiscovered:
		return nil, fmt.Errorf("%w: %s", ErrNotEvaluated, id)
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyDecided, id, cand.State)
	}

	if approve {
		m := &datatypes.Methodology{
			Name:       candidateName(cand),
			DomainTags: cand.DomainTags,
			Procedure:  cand.ExtractedProcedure,
			Provenance: datatypes.Provenance{
				Source:       "discovery:" + decidedBy,
				DiscoveredAt: cand.SubmittedAt,
				ApprovedAt:   time.Now().UTC(),
			},
			Status: datatypes.StatusApproved,
		}
		methID, err := p.meths.Put(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("store approved methodology: %w", err)
		}
		cand.MethodologyID = methID
		cand.State = datatypes.CandidateApproved
	} else {
		cand.State = datatypes.CandidateRejected
		if reason == "" {
			reason = "rejected by " + decidedBy
		}
		cand.RejectReason = reason
	}
	cand.DecidedAt = time.Now().UTC()

	if err := p.save(cand); err != nil {
		return nil, err
	}
	candidatesTotal.WithLabelValues(string(cand.State)).Inc()
	p.logger.Info("candidate decided",
		"id", cand.ID, "state", cand.State, "by", decidedBy,
		"methodology", cand.MethodologyID)
	return cand, nil
}

// EvaluatePending evaluates every Discovered candidate through a bounded
// worker pool. Per-candidate failures are logged and counted, never
// propagated; one bad candidate cannot sink the batch. Returns how many
// candidates were evaluated successfully.
func (p *Pipeline) EvaluatePending(ctx context.Context) (int, error) {
	pending, err := p.List(ctx, datatypes.CandidateDiscovered)
	if err != nil {
		return 0, err
	}

	sem := semaphore.NewWeighted(p.cfg.Workers)
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	evaluated := 0

	for _, cand := range pending {
		id := cand.ID
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if _, err := p.Evaluate(ctx, id); err != nil {
				p.logger.Warn("candidate evaluation failed", "id", id, "error", err)
				return nil
			}
			mu.Lock()
			evaluated++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return evaluated, err
	}
	return evaluated, ctx.Err()
}

var stepPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]\s*|[-*]\s+)`)

// extractSteps turns raw candidate lines into an ordered procedure,
// stripping list markers. Blank lines separate nothing; every non-empty
// line is one step.
func extractSteps(raw string) []datatypes.Step {
	var steps []datatypes.Step
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(stepPrefix.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		steps = append(steps, datatypes.Step{
			Ordinal:     len(steps) + 1,
			Instruction: line,
		})
	}
	return steps
}

func stepsText(steps []datatypes.Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.Instruction
	}
	return strings.Join(parts, "\n")
}

var nameCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// candidateName derives a store name from the first extracted step,
// bounded and slugified, with the candidate id prefix as tie-breaker
// against collisions.
func candidateName(cand *datatypes.DiscoveryCandidate) string {
	base := ""
	if len(cand.ExtractedProcedure) > 0 {
		base = strings.ToLower(cand.ExtractedProcedure[0].Instruction)
		base = strings.Trim(nameCleaner.ReplaceAllString(base, "-"), "-")
		if len(base) > 48 {
			base = base[:48]
		}
	}
	if base == "" {
		base = "candidate"
	}
	return base + "-" + cand.ID[:8]
}
