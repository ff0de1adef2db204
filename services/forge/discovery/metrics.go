// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "praxis",
		Subsystem: "discovery",
		Name:      "candidates_total",
		Help:      "Candidate state transitions by resulting state.",
	}, []string{"state"})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "praxis",
		Subsystem: "discovery",
		Name:      "evaluation_duration_seconds",
		Help:      "Per-candidate evaluation duration.",
		Buckets:   []float64{0.001, 0.01, 0.1, 1, 10, 60},
	})

	watcherIngestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "praxis",
		Subsystem: "discovery",
		Name:      "watcher_ingests_total",
		Help:      "Candidate files ingested from the drop directory.",
	})
)
