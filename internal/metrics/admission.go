// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the admitd admission subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// No request_id or input values in labels.

var (
	// AdmissionAdmitTotal counts admitted requests by policy.
	AdmissionAdmitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admitd_admission_admit_total",
		Help: "Total number of admitted requests, by policy.",
	}, []string{"policy"})

	// AdmissionRejectTotal counts rejected requests by policy and reason.
	AdmissionRejectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admitd_admission_reject_total",
		Help: "Total number of rejected requests, by policy and reason.",
	}, []string{"policy", "reason"})

	// PredictedLatency observes the latency prediction behind every decision.
	PredictedLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "admitd_admission_predicted_latency_seconds",
		Help:    "Predicted latency computed at admission time.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 5, 10},
	})

	// Estimate tracks the current moving-average unit service time.
	Estimate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "admitd_admission_estimate_seconds",
		Help: "Current moving-average estimate of the per-unit service time.",
	})

	// Active tracks admitted-but-not-completed requests.
	Active = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "admitd_admission_active",
		Help: "Current number of admitted requests that have not completed.",
	})

	// InvariantViolationTotal counts caller contract violations.
	InvariantViolationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admitd_invariant_violation_total",
		Help: "Total number of invariant violations, by rule.",
	}, []string{"rule"})
)

// RecordAdmit increments the admission counter and observes the prediction.
func RecordAdmit(policy string, predictedSeconds float64) {
	AdmissionAdmitTotal.WithLabelValues(policy).Inc()
	PredictedLatency.Observe(predictedSeconds)
}

// RecordReject increments the rejection counter and observes the prediction.
func RecordReject(policy, reason string, predictedSeconds float64) {
	AdmissionRejectTotal.WithLabelValues(policy, reason).Inc()
	PredictedLatency.Observe(predictedSeconds)
}

// SetEstimate sets the estimate gauge.
func SetEstimate(seconds float64) {
	Estimate.Set(seconds)
}

// SetActive sets the active gauge.
func SetActive(count float64) {
	Active.Set(count)
}

// RecordInvariantViolation increments the invariant violation counter.
func RecordInvariantViolation(rule string) {
	InvariantViolationTotal.WithLabelValues(rule).Inc()
}

// GetActive returns the current value of the active gauge (for testing).
func GetActive() float64 {
	var m dto.Metric
	if err := Active.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
