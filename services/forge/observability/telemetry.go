// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability wires the forge's tracing and metrics exporters.
// Metrics always export through the default Prometheus registry on
// /metrics; tracing is opt-in and ships spans to an OTLP collector over
// gRPC.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ServiceName identifies the forge in trace resources.
const ServiceName = "praxis-forge"

// Config controls the tracing exporter.
type Config struct {
	// Enabled turns tracing on. Metrics are always served.
	Enabled bool

	// Endpoint is the OTLP collector's gRPC address, e.g. localhost:4317.
	// The connection is insecure; run the collector next to the forge.
	Endpoint string

	// Version stamps the service.version resource attribute.
	Version string
}

// InitTracing installs a global TracerProvider shipping spans to the
// configured collector. The returned shutdown flushes pending spans and
// must be called on exit. With tracing disabled it installs nothing and
// the shutdown is a no-op.
func InitTracing(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("observability: tracing enabled without an endpoint")
	}

	conn, err := grpc.NewClient(cfg.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial otlp collector: %w", err)
	}
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", cfg.Version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

// MetricsHandler serves the default Prometheus registry, which every
// forge package registers its promauto metrics with.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
