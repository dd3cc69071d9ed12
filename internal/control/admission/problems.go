// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package admission

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/admitd/internal/control/http/problem"
)

// Admission Control Problem Codes (Stable)
const (
	CodeDeadlineExceeded = "ADMISSION_DEADLINE_EXCEEDED"
	CodeQueueFull        = "ADMISSION_QUEUE_FULL"
)

// ErrorTooManyRequests is the legacy "error" body field clients key off.
const ErrorTooManyRequests = "Too many requests"

// Problem is a lightweight wrapper around RFC7807 data for internal passing.
// This allows the controller to return a pure error value that the transport layer
// can convert to a wire response using problem.Write.
type Problem struct {
	Status int
	Type   string
	Title  string
	Code   string
	Detail string
	Extra  map[string]any
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%s] %s: %s", p.Code, p.Title, p.Detail)
}

// NewDeadlineExceeded returns a 503 problem when the predicted latency exceeds the deadline.
func NewDeadlineExceeded(predicted, deadline time.Duration) *Problem {
	return &Problem{
		Status: http.StatusServiceUnavailable,
		Type:   "admission/deadline-exceeded",
		Title:  "Server overloaded",
		Code:   CodeDeadlineExceeded,
		Detail: "The request is not expected to complete within its deadline.",
		Extra: map[string]any{
			"error":                ErrorTooManyRequests,
			"predicted_latency_ms": predicted.Milliseconds(),
			"deadline_ms":          deadline.Milliseconds(),
		},
	}
}

// NewQueueFull returns a 503 problem when all queue slots are held.
func NewQueueFull(current, limit int) *Problem {
	return &Problem{
		Status: http.StatusServiceUnavailable,
		Type:   "admission/queue-full",
		Title:  "Server overloaded",
		Code:   CodeQueueFull,
		Detail: "Maximum number of queued requests reached.",
		Extra: map[string]any{
			"error":   ErrorTooManyRequests,
			"current": current,
			"limit":   limit,
		},
	}
}

// WriteProblem converts an admission.Problem to an HTTP response using the standard problem package.
func WriteProblem(w http.ResponseWriter, r *http.Request, p *Problem) {
	problem.Write(w, r, p.Status, p.Type, p.Title, p.Code, p.Detail, p.Extra)
}

// WriteDecision writes the backpressure response for a rejecting decision,
// including Retry-After when the decision carries one.
func WriteDecision(w http.ResponseWriter, r *http.Request, d Decision) {
	p := d.Problem
	if p == nil {
		p = NewDeadlineExceeded(d.PredictedLatency, d.Deadline)
	}
	if d.RetryAfterSeconds != nil {
		w.Header().Set("Retry-After", strconv.Itoa(*d.RetryAfterSeconds))
	}
	WriteProblem(w, r, p)
}
