// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

// Package metrics exposes Prometheus instrumentation for recommendation runs
// and an optional /metrics listener.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VisitorsProcessed counts visitors the run attempted, by outcome:
	// "with_recommendations", "without_recommendations", "error".
	VisitorsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_visitors_processed_total",
			Help: "Total visitors processed, by outcome",
		},
		[]string{"outcome"},
	)

	// RecommendationsTotal counts delivered recommendations, by population
	// source.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_recommendations_total",
			Help: "Total recommendations delivered, by population source",
		},
		[]string{"source"},
	)

	// ControlGroupSize records the withheld cohort size of the last run.
	ControlGroupSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_control_group_size",
			Help: "Visitors withheld into the control group in the last run",
		},
	)

	// CapacityRemovals counts recommendations trimmed by the capacity pass.
	CapacityRemovals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommender_capacity_removals_total",
			Help: "Recommendations removed by theatre capacity enforcement",
		},
	)

	// RunDuration observes full pipeline run duration.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommender_run_duration_seconds",
			Help:    "Duration of complete recommendation runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
)

// RecordRun publishes the aggregate outcome of one completed run.
func RecordRun(withRecs, withoutRecs, errs, controlSize int, duration time.Duration) {
	VisitorsProcessed.WithLabelValues("with_recommendations").Add(float64(withRecs))
	VisitorsProcessed.WithLabelValues("without_recommendations").Add(float64(withoutRecs))
	VisitorsProcessed.WithLabelValues("error").Add(float64(errs))
	ControlGroupSize.Set(float64(controlSize))
	RunDuration.Observe(duration.Seconds())
}
