// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/graph"
	"github.com/praxislabs/praxis/services/forge/oracle"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
	"github.com/praxislabs/praxis/services/forge/store"
)

const rawRefactoringNotes = `1. Identify the module with the highest churn
2. Write characterization tests around its public surface
3. Extract one responsibility at a time behind an interface
4. Re-run the characterization tests after every extraction`

func newTestPipeline(t *testing.T, analyzer oracle.Analyzer) (*Pipeline, *store.Store, *graph.Engine) {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := store.New(db, nil)
	eng, err := graph.NewEngine(nil, nil, graph.DefaultOptions())
	require.NoError(t, err)
	if analyzer == nil {
		analyzer = &oracle.StubAnalyzer{}
	}
	return New(db, s, eng, analyzer, nil, DefaultConfig()), s, eng
}

func TestSubmitAndEvaluate(t *testing.T) {
	p, _, eng := newTestPipeline(t, nil)
	ctx := context.Background()

	_, err := eng.AddEdge(ctx, "code-quality", "testing", "small-steps-reduce-risk", 0.7)
	require.NoError(t, err)

	cand, err := p.Submit(ctx, rawRefactoringNotes, []datatypes.DomainTag{"code-quality", "economics"})
	require.NoError(t, err)
	assert.Equal(t, datatypes.CandidateDiscovered, cand.State)

	cand, err = p.Evaluate(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.CandidateEvaluated, cand.State)
	assert.Len(t, cand.ExtractedProcedure, 4)
	assert.Equal(t, "Identify the module with the highest churn", cand.ExtractedProcedure[0].Instruction)

	// Nothing approved exists yet, so the candidate is fully unique, and
	// one of its two tags is known to the graph.
	assert.Equal(t, 1.0, cand.UniquenessScore)
	assert.Equal(t, 0.5, cand.IntegrationFeasibilityScore)
}

func TestEvaluateRejectsNearDuplicate(t *testing.T) {
	p, s, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	existing := &datatypes.Methodology{
		Name:       "characterization-refactoring",
		DomainTags: []datatypes.DomainTag{"code-quality"},
		Procedure: []datatypes.Step{
			{Ordinal: 1, Instruction: "Identify the module with the highest churn"},
			{Ordinal: 2, Instruction: "Write characterization tests around its public surface"},
			{Ordinal: 3, Instruction: "Extract one responsibility at a time behind an interface"},
			{Ordinal: 4, Instruction: "Re-run the characterization tests after every extraction"},
		},
		Status: datatypes.StatusApproved,
	}
	_, err := s.Put(ctx, existing)
	require.NoError(t, err)

	cand, err := p.Submit(ctx, rawRefactoringNotes, []datatypes.DomainTag{"code-quality"})
	require.NoError(t, err)

	cand, err = p.Evaluate(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.CandidateRejected, cand.State)
	assert.Equal(t, RejectUniqueness, cand.RejectReason)
	assert.Less(t, cand.UniquenessScore, 0.15)
}

func TestEvaluateRejectsUnanalyzable(t *testing.T) {
	p, _, _ := newTestPipeline(t, &oracle.StubAnalyzer{Fail: oracle.ErrUnsupported})
	ctx := context.Background()

	cand, err := p.Submit(ctx, "???", []datatypes.DomainTag{"code-quality"})
	require.NoError(t, err)

	cand, err = p.Evaluate(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.CandidateRejected, cand.State)
	assert.Equal(t, "unanalyzable source material", cand.RejectReason)
}

func TestEvaluateTimeoutIsRetryable(t *testing.T) {
	flaky := &timeoutOnceAnalyzer{inner: &oracle.StubAnalyzer{}}
	p, _, _ := newTestPipeline(t, flaky)
	ctx := context.Background()

	cand, err := p.Submit(ctx, rawRefactoringNotes, []datatypes.DomainTag{"code-quality"})
	require.NoError(t, err)

	_, err = p.Evaluate(ctx, cand.ID)
	require.ErrorIs(t, err, ErrEvaluationTimeout)

	// The candidate stayed Discovered; a retry succeeds.
	got, err := p.Get(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.CandidateDiscovered, got.State)

	got, err = p.Evaluate(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.CandidateEvaluated, got.State)
}

func TestDecideApproveMintsMethodology(t *testing.T) {
	p, s, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	cand, err := p.Submit(ctx, rawRefactoringNotes, []datatypes.DomainTag{"code-quality"})
	require.NoError(t, err)
	_, err = p.Evaluate(ctx, cand.ID)
	require.NoError(t, err)

	cand, err = p.Decide(ctx, cand.ID, true, "review-board", "")
	require.NoError(t, err)
	assert.Equal(t, datatypes.CandidateApproved, cand.State)
	require.NotEmpty(t, cand.MethodologyID)

	m, err := s.Get(ctx, cand.MethodologyID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.StatusApproved, m.Status)
	assert.Len(t, m.Procedure, 4)
	assert.Equal(t, "discovery:review-board", m.Provenance.Source)

	// Terminal: a second verdict is refused.
	_, err = p.Decide(ctx, cand.ID, false, "review-board", "changed my mind")
	require.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestDecideRequiresEvaluation(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	cand, err := p.Submit(ctx, rawRefactoringNotes, []datatypes.DomainTag{"code-quality"})
	require.NoError(t, err)

	_, err = p.Decide(ctx, cand.ID, true, "review-board", "")
	require.ErrorIs(t, err, ErrNotEvaluated)
}

func TestDecideReject(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	cand, err := p.Submit(ctx, rawRefactoringNotes, []datatypes.DomainTag{"code-quality"})
	require.NoError(t, err)
	_, err = p.Evaluate(ctx, cand.ID)
	require.NoError(t, err)

	cand, err = p.Decide(ctx, cand.ID, false, "review-board", "too narrow")
	require.NoError(t, err)
	assert.Equal(t, datatypes.CandidateRejected, cand.State)
	assert.Equal(t, "too narrow", cand.RejectReason)
	assert.Empty(t, cand.MethodologyID)
}

// TestEvaluatePendingIsolation submits a batch where some candidates are
// near-duplicates of an approved methodology. Duplicates must be rejected
// without affecting the evaluation of the rest.
func TestEvaluatePendingIsolation(t *testing.T) {
	p, s, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	existing := &datatypes.Methodology{
		Name:       "characterization-refactoring",
		DomainTags: []datatypes.DomainTag{"code-quality"},
		Procedure: []datatypes.Step{
			{Ordinal: 1, Instruction: "Identify the module with the highest churn"},
			{Ordinal: 2, Instruction: "Write characterization tests around its public surface"},
			{Ordinal: 3, Instruction: "Extract one responsibility at a time behind an interface"},
			{Ordinal: 4, Instruction: "Re-run the characterization tests after every extraction"},
		},
		Status: datatypes.StatusApproved,
	}
	_, err := s.Put(ctx, existing)
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 10; i++ {
		raw := rawRefactoringNotes
		if i%3 != 0 {
			raw = fmt.Sprintf(`1. Profile allocation hotspots in service %d
2. Replace per-request buffers with pooled slabs for workload %d
3. Compare allocation rates before and after under load test %d`, i, i, i)
		}
		cand, err := p.Submit(ctx, raw, []datatypes.DomainTag{"code-quality"})
		require.NoError(t, err)
		ids = append(ids, cand.ID)
	}

	n, err := p.EvaluatePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	rejected, evaluated := 0, 0
	for _, id := range ids {
		cand, err := p.Get(ctx, id)
		require.NoError(t, err)
		switch cand.State {
		case datatypes.CandidateRejected:
			assert.Equal(t, RejectUniqueness, cand.RejectReason)
			rejected++
		case datatypes.CandidateEvaluated:
			evaluated++
		default:
			t.Fatalf("candidate %s left in state %s", id, cand.State)
		}
	}
	assert.Equal(t, 4, rejected, "the duplicate submissions must be rejected")
	assert.Equal(t, 6, evaluated)
}

func TestExtractSteps(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"numbered", "1. first\n2. second\n3) third", 3},
		{"bulleted", "- first\n* second", 2},
		{"plain-lines", "first\n\nsecond\n", 2},
		{"empty", "\n\n  \n", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			steps := extractSteps(tc.raw)
			assert.Len(t, steps, tc.want)
			for i, s := range steps {
				assert.Equal(t, i+1, s.Ordinal)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("measure the baseline", "measure the baseline"))
	assert.Equal(t, 0.0, similarity("alpha beta gamma", "delta epsilon zeta"))
	mid := similarity("measure the baseline first", "measure the baseline last")
	assert.Greater(t, mid, 0.4)
	assert.Less(t, mid, 1.0)
}

// timeoutOnceAnalyzer fails its first Analyze with ErrTimeout, then
// delegates.
type timeoutOnceAnalyzer struct {
	inner oracle.Analyzer
	fired bool
}

func (a *timeoutOnceAnalyzer) Analyze(ctx context.Context, content string, kind oracle.AnalysisType) (*oracle.Analysis, error) {
	if !a.fired {
		a.fired = true
		return nil, oracle.ErrTimeout
	}
	return a.inner.Analyze(ctx, content, kind)
}

func (a *timeoutOnceAnalyzer) Compress(ctx context.Context, payload []byte, budget uint) ([]byte, error) {
	return a.inner.Compress(ctx, payload, budget)
}
