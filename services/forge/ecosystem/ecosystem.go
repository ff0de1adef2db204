// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ecosystem assembles the forge's components into one explicit
// dependency container. Server main builds it once and hands it to the
// route setup; nothing in the tree reaches for package-level state.
package ecosystem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/praxislabs/praxis/services/forge/blobstore"
	"github.com/praxislabs/praxis/services/forge/checkpoint"
	"github.com/praxislabs/praxis/services/forge/config"
	"github.com/praxislabs/praxis/services/forge/convert"
	"github.com/praxislabs/praxis/services/forge/discovery"
	"github.com/praxislabs/praxis/services/forge/generate"
	"github.com/praxislabs/praxis/services/forge/graph"
	"github.com/praxislabs/praxis/services/forge/oracle"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
	"github.com/praxislabs/praxis/services/forge/store"
	"github.com/praxislabs/praxis/services/forge/tasks"
)

// Ecosystem holds every long-lived forge component.
type Ecosystem struct {
	Config *config.Config
	Logger *slog.Logger

	DB          *badger.DB
	Store       *store.Store
	Graph       *graph.Engine
	Oracle      oracle.Analyzer
	Blobs       blobstore.Store
	Converter   *convert.Converter
	Generator   *generate.Generator
	Pipeline    *discovery.Pipeline
	Checkpoints *checkpoint.Manager
	Tasks       *tasks.Registry

	// Watcher is non-nil when a discovery drop directory is configured.
	Watcher *discovery.Watcher
}

// Build wires the full component graph from the configuration. On error,
// anything already opened is closed before returning.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Ecosystem, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var db *badger.DB
	var err error
	if cfg.Storage.InMemory {
		db, err = badger.OpenInMemory()
	} else {
		db, err = badger.Open(badger.DefaultConfig(cfg.Storage.Path))
	}
	if err != nil {
		return nil, fmt.Errorf("open forge database: %w", err)
	}

	analyzer, err := buildOracle(cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	blobs, err := buildBlobs(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	eng, err := graph.NewEngine(db, logger, graph.Options{
		StrengthThreshold: cfg.Graph.StrengthThreshold,
		MinEvidence:       cfg.Graph.MinEvidence,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load relationship graph: %w", err)
	}

	meths := store.New(db, logger)
	ckpts := checkpoint.NewManager(db, logger)

	eco := &Ecosystem{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Store:       meths,
		Graph:       eng,
		Oracle:      analyzer,
		Blobs:       blobs,
		Converter:   convert.New(blobs, analyzer, db, logger),
		Checkpoints: ckpts,
		Tasks:       tasks.NewRegistry(ckpts),
		Generator: generate.New(meths, eng, analyzer, db, logger, generate.Config{
			CacheSize:         cfg.Generate.CacheSize,
			StrengthThreshold: cfg.Generate.StrengthThreshold,
		}),
	}
	eco.Pipeline = discovery.New(db, meths, eng, analyzer, logger, discovery.Config{
		SimilarityCeiling: cfg.Discovery.SimilarityCeiling,
		EvaluationTimeout: time.Duration(cfg.Discovery.EvaluationTimeoutSeconds) * time.Second,
		Workers:           cfg.Discovery.Workers,
	})

	if cfg.Discovery.DropDir != "" {
		w, err := discovery.NewWatcher(cfg.Discovery.DropDir, eco.Pipeline, logger, 0)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create drop watcher: %w", err)
		}
		eco.Watcher = w
	}

	return eco, nil
}

func buildOracle(cfg *config.Config, logger *slog.Logger) (oracle.Analyzer, error) {
	var inner oracle.Analyzer
	switch cfg.Oracle.Backend {
	case "openai":
		a, err := oracle.NewOpenAIAnalyzer(logger)
		if err != nil {
			return nil, fmt.Errorf("init oracle: %w", err)
		}
		inner = a
	case "stub":
		inner = &oracle.StubAnalyzer{}
	default:
		return nil, fmt.Errorf("unknown oracle backend %q", cfg.Oracle.Backend)
	}

	policy := oracle.DefaultRetryPolicy()
	if cfg.Oracle.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Oracle.MaxAttempts
	}
	if cfg.Oracle.TimeoutSeconds > 0 {
		policy.CallTimeout = time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second
	}
	return oracle.NewRetryingAnalyzer(inner, policy, logger), nil
}

func buildBlobs(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.Blob.Backend {
	case "fs":
		return blobstore.NewFSStore(cfg.Blob.Root)
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "gcs":
		return blobstore.NewGCSStore(ctx, cfg.Blob.Bucket, cfg.Blob.Prefix, cfg.Blob.CredentialsFile)
	}
	return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
}

// Start launches background components (currently the drop watcher).
func (e *Ecosystem) Start(ctx context.Context) error {
	if e.Watcher != nil {
		if err := e.Watcher.Start(ctx); err != nil {
			return fmt.Errorf("start drop watcher: %w", err)
		}
	}
	return nil
}

// Close tears the ecosystem down in reverse dependency order.
func (e *Ecosystem) Close() error {
	if e.Watcher != nil {
		e.Watcher.Stop()
	}
	return e.DB.Close()
}
