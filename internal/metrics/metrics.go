// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes per-phase counters and histograms over
// Prometheus, mirroring the teacher's promhttp wiring in cmd/cie/index.go.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archivist",
		Name:      "files_processed_total",
		Help:      "Files processed per pipeline phase.",
	}, []string{"phase", "result"})

	LLMCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "archivist",
		Name:      "llm_call_duration_seconds",
		Help:      "LLM call latency by tier.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"tier"})

	LLMCallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archivist",
		Name:      "llm_call_errors_total",
		Help:      "LLM call failures by tier and error kind.",
	}, []string{"tier", "kind"})

	DuplicateGroups = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "archivist",
		Name:      "duplicate_groups_total",
		Help:      "Duplicate groups resolved.",
	})

	VersionChains = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "archivist",
		Name:      "version_chains_total",
		Help:      "Version chains confirmed.",
	})

	ExecutionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archivist",
		Name:      "execution_errors_total",
		Help:      "Executor per-operation failures by operation type.",
	}, []string{"operation"})

	JobPhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "archivist",
		Name:      "job_phase_duration_seconds",
		Help:      "Wall-clock duration of each job phase.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"phase"})
)
