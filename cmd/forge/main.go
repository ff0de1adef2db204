// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command forge starts the Praxis forge HTTP server.
//
// The forge is the methodology store: it holds validated methodologies and
// their cross-domain relationship graph, generates differentiated optimizer
// packages, runs the discovery pipeline, and converts content between
// generic and intelligent storage.
//
// Configuration is read from ~/.praxis/praxis.yaml (created on first run)
// and can be overridden per-setting with environment variables:
//
//   - PRAXIS_PORT: HTTP server port (default: 8090)
//   - PRAXIS_DATA_DIR: badger data directory
//   - PRAXIS_ORACLE_BACKEND: oracle backend - openai, stub (default: stub)
//   - PRAXIS_DROP_DIR: discovery drop directory (empty disables the watcher)
//   - PRAXIS_OTLP_ENDPOINT: OpenTelemetry collector; setting it enables tracing
//
// Usage:
//
//	go run ./cmd/forge
//	go run ./cmd/forge -config /etc/praxis/praxis.yaml
//	PRAXIS_ORACLE_BACKEND=openai OPENAI_API_KEY=... go run ./cmd/forge
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8090/health
//
//	# Generate an execution optimizer
//	curl -X POST http://localhost:8090/v1/optimizers \
//	  -H "Content-Type: application/json" \
//	  -d '{"kind":"execution","target_consumer":"consumer-A","requirement_tags":["code-quality"],"max_payload_size":4096}'
//
//	# Submit a discovery candidate
//	curl -X POST http://localhost:8090/v1/candidates \
//	  -H "Content-Type: application/json" \
//	  -d '{"raw_source":"1. Measure first\n2. Change one thing\n3. Re-measure","domain_tags":["process-improvement"]}'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/praxislabs/praxis/pkg/logging"
	"github.com/praxislabs/praxis/services/forge/config"
	"github.com/praxislabs/praxis/services/forge/ecosystem"
	"github.com/praxislabs/praxis/services/forge/observability"
	"github.com/praxislabs/praxis/services/forge/routes"
)

// version is stamped by the build via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to praxis.yaml (default: ~/.praxis/praxis.yaml)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	level := logging.LevelInfo
	if *debug {
		level = logging.LevelDebug
	}
	log := logging.New(logging.Config{
		Level:   level,
		LogDir:  "~/.praxis/logs",
		Service: "forge",
		JSON:    true,
	})
	defer log.Close()

	logger := log.Slog()
	slog.SetDefault(logger)

	if err := run(*configPath, *debug, logger); err != nil {
		logger.Error("forge exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, debug bool, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.Config{
		Enabled:  cfg.Observability.Tracing,
		Endpoint: cfg.Observability.OTLPEndpoint,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	eco, err := ecosystem.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build ecosystem: %w", err)
	}
	defer func() {
		if err := eco.Close(); err != nil {
			logger.Warn("ecosystem close failed", "error", err)
		}
	}()

	if err := eco.Start(ctx); err != nil {
		return err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	routes.SetupRoutes(router, eco)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting forge server",
			"address", addr,
			"version", version,
			"oracle_backend", cfg.Oracle.Backend,
			"tracing", cfg.Observability.Tracing,
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down forge server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
