// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package admission

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Policy names (stable, used as metric labels and config values).
const (
	PolicyLatency     = "latency"
	PolicyQueueLength = "queue_length"
)

// Decision reasons (stable, used as metric labels).
const (
	ReasonSpareCapacity    = "spare_capacity"
	ReasonColdStart        = "cold_start"
	ReasonWithinDeadline   = "within_deadline"
	ReasonDeadlineExceeded = "deadline_exceeded"
	ReasonQueueAvailable   = "queue_available"
	ReasonQueueFull        = "queue_full"
)

// ErrRejected is matched by every rejection error returned from this package's callers.
var ErrRejected = errors.New("admission rejected")

// Decision represents the outcome of an admission check.
type Decision struct {
	Admit  bool
	Policy string
	Reason string

	Deadline         time.Duration
	PredictedLatency time.Duration
	Estimate         time.Duration
	PendingAhead     float64
	Active           int
	Workers          int

	// Set on rejection only.
	Problem           *Problem
	RetryAfterSeconds *int
}

// RejectedError wraps a rejecting Decision so it can travel as an error value.
type RejectedError struct {
	Decision Decision
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("admission rejected (%s): predicted %s, deadline %s",
		e.Decision.Reason, e.Decision.PredictedLatency, e.Decision.Deadline)
}

func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// Gate decides and, when admitting, reserves capacity in one step.
// The returned ticket is nil exactly when the decision rejects.
type Gate interface {
	Acquire(deadline time.Duration) (*Ticket, Decision)
	Policy() string
	Snapshot() State
}

// State is a read-only view of a gate, served for inspection.
type State struct {
	Policy          string    `json:"policy"`
	Workers         int       `json:"workers,omitempty"`
	Active          int       `json:"active"`
	PendingAhead    float64   `json:"pending_ahead"`
	WindowSize      int       `json:"window_size,omitempty"`
	SamplesSeconds  []float64 `json:"samples_seconds,omitempty"`
	EstimateSeconds float64   `json:"estimate_seconds"`
	QueueLength     int       `json:"queue_length,omitempty"`
}

// Ticket is the handle of one admitted request. Exactly one of Done or Abort
// takes effect; later calls are no-ops.
type Ticket struct {
	// QueuePosition is the pending-ahead value observed before this request was counted.
	QueuePosition float64
	Decision      Decision

	once  sync.Once
	done  func(elapsed time.Duration)
	abort func()
}

// Done releases the reserved capacity and feeds the observed duration back.
func (t *Ticket) Done(elapsed time.Duration) {
	if t == nil {
		return
	}
	t.once.Do(func() {
		if t.done != nil {
			t.done(elapsed)
		}
	})
}

// Abort releases the reserved capacity without recording a sample.
func (t *Ticket) Abort() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		if t.abort != nil {
			t.abort()
		}
	})
}

// Normalize divides an observed duration by the number of service cycles the
// request spent queued plus its own, yielding a per-unit service time.
func Normalize(elapsed time.Duration, position float64) time.Duration {
	if position < 0 || math.IsNaN(position) {
		position = 0
	}
	return time.Duration(float64(elapsed) / (position + 1))
}

func retryAfterSeconds(wait time.Duration) *int {
	s := int(math.Ceil(wait.Seconds()))
	if s < 1 {
		s = 1
	}
	return &s
}
