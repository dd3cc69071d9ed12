// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Admission fields
	FieldPolicy           = "policy"
	FieldDeadline         = "deadline"
	FieldPredictedLatency = "predicted_latency"
	FieldEstimate         = "estimate"
	FieldPendingAhead     = "pending_ahead"
	FieldQueuePosition    = "queue_position"
	FieldActive           = "active"
	FieldWorkers          = "workers"
	FieldReason           = "reason"

	// Execution fields
	FieldElapsed    = "elapsed"
	FieldNormalized = "normalized"

	// HTTP fields
	FieldMethod = "method"
	FieldPath   = "path"
	FieldStatus = "status"
)
