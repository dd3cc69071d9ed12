// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Admission attributes
	AdmissionPolicyKey           = "admission.policy"
	AdmissionAdmitKey            = "admission.admit"
	AdmissionReasonKey           = "admission.reason"
	AdmissionDeadlineKey         = "admission.deadline_ms"
	AdmissionPredictedLatencyKey = "admission.predicted_latency_ms"
	AdmissionPendingAheadKey     = "admission.pending_ahead"
	AdmissionActiveKey           = "admission.active"

	// Execution attributes
	ExecutionQueuePositionKey = "execution.queue_position"
	ExecutionElapsedKey       = "execution.elapsed_ms"
	ExecutionNormalizedKey    = "execution.normalized_ms"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// AdmissionAttributes creates span attributes describing one admission decision.
func AdmissionAttributes(policy, reason string, admit bool, deadline, predicted time.Duration, pendingAhead float64, active int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AdmissionPolicyKey, policy),
		attribute.Bool(AdmissionAdmitKey, admit),
		attribute.String(AdmissionReasonKey, reason),
		attribute.Int64(AdmissionDeadlineKey, deadline.Milliseconds()),
		attribute.Int64(AdmissionPredictedLatencyKey, predicted.Milliseconds()),
		attribute.Float64(AdmissionPendingAheadKey, pendingAhead),
		attribute.Int(AdmissionActiveKey, active),
	}
}

// ExecutionAttributes creates span attributes for a finished execution.
func ExecutionAttributes(queuePosition float64, elapsed, normalized time.Duration) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64(ExecutionQueuePositionKey, queuePosition),
		attribute.Int64(ExecutionElapsedKey, elapsed.Milliseconds()),
		attribute.Int64(ExecutionNormalizedKey, normalized.Milliseconds()),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
