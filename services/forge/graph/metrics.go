// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	edgeCountGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "praxis",
		Subsystem: "graph",
		Name:      "edges",
		Help:      "Number of relationship edges currently in the graph.",
	})

	principleCountGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "praxis",
		Subsystem: "graph",
		Name:      "principles",
		Help:      "Number of derived universal principles after the last recompute.",
	})

	evidenceTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "praxis",
		Subsystem: "graph",
		Name:      "evidence_total",
		Help:      "Total evidence observations merged into the graph.",
	})

	recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "praxis",
		Subsystem: "graph",
		Name:      "recompute_duration_seconds",
		Help:      "Duration of UniversalPrinciple recomputation.",
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	})
)
