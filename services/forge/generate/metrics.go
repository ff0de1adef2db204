// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "praxis",
		Subsystem: "generate",
		Name:      "optimizers_total",
		Help:      "Optimizer generation attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "praxis",
		Subsystem: "generate",
		Name:      "cache_hits_total",
		Help:      "Generation requests answered from the optimizer cache.",
	})

	invalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "praxis",
		Subsystem: "generate",
		Name:      "cache_invalidations_total",
		Help:      "Cached optimizers dropped after a methodology status change.",
	})

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "praxis",
		Subsystem: "generate",
		Name:      "duration_seconds",
		Help:      "End-to-end optimizer generation duration, cache misses only.",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	})

	payloadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "praxis",
		Subsystem: "generate",
		Name:      "payload_bytes",
		Help:      "Compressed optimizer payload sizes.",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	})
)
