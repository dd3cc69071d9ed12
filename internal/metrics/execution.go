// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	executionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admitd_execution_duration_seconds",
		Help:    "Wall-clock time from arrival to completion of admitted work, by outcome.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 5, 10},
	}, []string{"outcome"})

	normalizedSample = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "admitd_execution_normalized_sample_seconds",
		Help:    "Queue-normalized service time samples fed back into the estimator.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 0.75, 1, 2, 5},
	})

	workerPoolBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "admitd_workerpool_busy",
		Help: "Number of pool workers currently executing a task.",
	})

	workerPoolTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admitd_workerpool_tasks_total",
		Help: "Total number of tasks finished by the worker pool, by outcome (ok/error/panic).",
	}, []string{"outcome"})
)

// ObserveExecution records the elapsed time of one admitted request.
// outcome: "ok", "error" or "aborted".
func ObserveExecution(outcome string, seconds float64) {
	executionDuration.WithLabelValues(outcome).Observe(seconds)
}

// ObserveNormalizedSample records a sample handed to the estimator.
func ObserveNormalizedSample(seconds float64) {
	normalizedSample.Observe(seconds)
}

// IncWorkerBusy increments the busy worker gauge.
func IncWorkerBusy() {
	workerPoolBusy.Inc()
}

// DecWorkerBusy decrements the busy worker gauge.
func DecWorkerBusy() {
	workerPoolBusy.Dec()
}

// RecordTask increments the pool task counter.
func RecordTask(outcome string) {
	workerPoolTasks.WithLabelValues(outcome).Inc()
}
