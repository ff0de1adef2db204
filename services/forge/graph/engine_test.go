// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
)

func newVolatileEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(nil, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestAddEdgeValidation(t *testing.T) {
	e := newVolatileEngine(t)
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		if _, err := e.AddEdge(ctx, "", "code-quality", "p1"); err == nil {
			t.Fatal("expected error for empty source")
		}
	})

	t.Run("self edge", func(t *testing.T) {
		if _, err := e.AddEdge(ctx, "biology", "biology", "p1"); err == nil {
			t.Fatal("expected error for self edge")
		}
	})

	t.Run("weight out of range", func(t *testing.T) {
		if _, err := e.AddEdge(ctx, "biology", "code-quality", "p1", 1.5); err == nil {
			t.Fatal("expected error for weight > 1")
		}
	})
}

func TestAddEdgeMergesEvidence(t *testing.T) {
	e := newVolatileEngine(t)
	ctx := context.Background()

	edge, err := e.AddEdge(ctx, "biology", "code-quality", "redundancy", 0.8)
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if edge.Strength != 0.8 || edge.EvidenceCount != 1 {
		t.Fatalf("got strength=%v count=%d, want 0.8/1", edge.Strength, edge.EvidenceCount)
	}

	edge, err = e.AddEdge(ctx, "biology", "code-quality", "redundancy", 0.6)
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if edge.EvidenceCount != 2 {
		t.Fatalf("expected merged evidence count 2, got %d", edge.EvidenceCount)
	}
	// Weighted mean dropped to 0.7, but strength already reached 0.8 and
	// must not decrease.
	if edge.Strength != 0.8 {
		t.Fatalf("strength decreased to %v", edge.Strength)
	}
}

func TestStrengthMonotone(t *testing.T) {
	e := newVolatileEngine(t)
	ctx := context.Background()

	weights := []float64{0.9, 0.1, 0.2, 0.1}
	var prev float64
	for _, w := range weights {
		edge, err := e.AddEdge(ctx, "genomics", "text-generation", "compression", w)
		if err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
		if edge.Strength < prev {
			t.Fatalf("strength decreased: %v -> %v", prev, edge.Strength)
		}
		prev = edge.Strength
	}
}

func TestComputePrinciplesThresholds(t *testing.T) {
	e := newVolatileEngine(t)
	ctx := context.Background()

	// Strong cluster: two evidence points, mean 0.8.
	mustAdd(t, e, "biology", "code-quality", "redundancy", 0.8, 0.8)
	// Weak cluster: enough evidence, mean below 0.6.
	mustAdd(t, e, "biology", "code-quality", "mimicry", 0.3, 0.4)
	// Thin cluster: strong but a single evidence point.
	mustAdd(t, e, "3d", "genomics", "layering", 0.9)
	// Provisional edge: no evidence at all.
	mustAdd(t, e, "music", "code-quality", "rhythm")

	ps, err := e.ComputePrinciples(ctx)
	if err != nil {
		t.Fatalf("ComputePrinciples: %v", err)
	}
	if len(ps) != 1 {
		t.Fatalf("expected exactly one derived principle, got %d: %+v", len(ps), ps)
	}
	p := ps[0]
	if p.ID != "redundancy" || p.OriginDomain != "biology" {
		t.Fatalf("unexpected principle %+v", p)
	}
	if p.Strength != 0.8 || p.EvidenceCount != 2 {
		t.Fatalf("unexpected aggregates %+v", p)
	}
}

func TestComputePrinciplesDeterminism(t *testing.T) {
	build := func() *Engine {
		e, _ := NewEngine(nil, nil, DefaultOptions())
		mustAdd(t, e, "biology", "code-quality", "redundancy", 0.7, 0.9)
		mustAdd(t, e, "biology", "3d", "redundancy", 0.8)
		mustAdd(t, e, "genomics", "code-quality", "compression", 0.9, 0.7, 0.8)
		mustAdd(t, e, "music", "text-generation", "rhythm", 0.65, 0.72)
		return e
	}

	marshal := func(e *Engine) []byte {
		ps, err := e.ComputePrinciples(context.Background())
		if err != nil {
			t.Fatalf("ComputePrinciples: %v", err)
		}
		data, err := json.Marshal(ps)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}

	a := build()
	first := marshal(a)
	second := marshal(a) // cached path
	if !bytes.Equal(first, second) {
		t.Fatal("repeated compute on unchanged edge set differs")
	}

	b := build() // fresh engine, same edges
	if !bytes.Equal(first, marshal(b)) {
		t.Fatal("identical edge sets produced different principle sets")
	}
}

func TestQueryTransfer(t *testing.T) {
	e := newVolatileEngine(t)
	ctx := context.Background()

	mustAdd(t, e, "biology", "code-quality", "redundancy", 0.8, 0.8)
	mustAdd(t, e, "genomics", "3d", "compression", 0.9, 0.9)

	ps, err := e.QueryTransfer(ctx, "biology", "code-quality")
	if err != nil {
		t.Fatalf("QueryTransfer: %v", err)
	}
	if len(ps) != 1 || ps[0].ID != "redundancy" {
		t.Fatalf("unexpected transfer result %+v", ps)
	}

	// Cluster does not touch "music".
	ps, err = e.QueryTransfer(ctx, "music", "code-quality")
	if err != nil {
		t.Fatalf("QueryTransfer: %v", err)
	}
	if len(ps) != 0 {
		t.Fatalf("expected no principles, got %+v", ps)
	}
}

func TestKnowsDomain(t *testing.T) {
	e := newVolatileEngine(t)
	mustAdd(t, e, "biology", "code-quality", "redundancy", 0.5)

	if !e.KnowsDomain("biology") || !e.KnowsDomain("code-quality") {
		t.Fatal("expected both edge endpoints to be known")
	}
	if e.KnowsDomain("music") {
		t.Fatal("unknown domain reported as known")
	}
}

func TestEnginePersistenceReload(t *testing.T) {
	dir := t.TempDir()
	cfg := badger.DefaultConfig(dir)
	cfg.SyncWrites = false
	cfg.GCInterval = 0

	db, err := badger.Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e, err := NewEngine(db, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	mustAdd(t, e, "biology", "code-quality", "redundancy", 0.8, 0.8)
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = badger.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	reloaded, err := NewEngine(db, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEngine after reload: %v", err)
	}
	strength, count, ok := reloaded.Strength("biology", "code-quality", "redundancy")
	if !ok || strength != 0.8 || count != 2 {
		t.Fatalf("reloaded edge state wrong: ok=%v strength=%v count=%d", ok, strength, count)
	}
}

func mustAdd(t *testing.T, e *Engine, src, dst datatypes.DomainTag, pid datatypes.PrincipleID, weights ...float64) {
	t.Helper()
	if _, err := e.AddEdge(context.Background(), src, dst, pid, weights...); err != nil {
		t.Fatalf("AddEdge(%s->%s %s): %v", src, dst, pid, err)
	}
}
