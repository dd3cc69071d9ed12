// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package execution runs admitted work on the worker pool and measures each
// request from arrival to completion, feeding the duration back to the gate.
package execution

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/admitd/internal/control/admission"
	"github.com/ManuGH/admitd/internal/log"
	"github.com/ManuGH/admitd/internal/metrics"
	"github.com/ManuGH/admitd/internal/telemetry"
	"github.com/ManuGH/admitd/internal/workerpool"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeAborted  = "aborted"
)

// Submitter hands work to an executor and returns a future for its result.
type Submitter interface {
	Submit(ctx context.Context, task workerpool.Task) (*workerpool.Future, error)
}

// Result describes one tracked execution.
type Result struct {
	Value    any
	Decision admission.Decision

	// QueuePosition is the pending-ahead value captured at admission.
	QueuePosition float64

	// Elapsed runs from arrival to completion, queueing included.
	Elapsed time.Duration
}

// Tracker couples a gate with an executor.
type Tracker struct {
	gate   admission.Gate
	pool   Submitter
	now    func() time.Time
	tracer trace.Tracer
	logger zerolog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now for arrival and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithTracer replaces the global tracer.
func WithTracer(tr trace.Tracer) Option {
	return func(t *Tracker) { t.tracer = tr }
}

// NewTracker creates a tracker submitting admitted work to pool.
func NewTracker(gate admission.Gate, pool Submitter, opts ...Option) *Tracker {
	t := &Tracker{
		gate:   gate,
		pool:   pool,
		now:    time.Now,
		tracer: telemetry.Tracer("admitd/execution"),
		logger: log.WithComponent("execution"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Gate returns the gate the tracker admits through.
func (t *Tracker) Gate() admission.Gate { return t.gate }

// Execute admits, runs and measures work.
//
// A rejected request returns a *admission.RejectedError and never runs.
// An admitted request always releases its slot: Done with the measured
// duration once the work finishes, or Abort when it could not be submitted.
// The wait for the result is not bound to ctx so admitted work is never
// abandoned half way.
func (t *Tracker) Execute(ctx context.Context, deadline time.Duration, work workerpool.Task) (Result, error) {
	ctx, span := t.tracer.Start(ctx, "admission.execute")
	defer span.End()

	arrival := t.now()
	ticket, d := t.gate.Acquire(deadline)
	span.SetAttributes(telemetry.AdmissionAttributes(d.Policy, d.Reason, d.Admit,
		d.Deadline, d.PredictedLatency, d.PendingAhead, d.Active)...)

	res := Result{Decision: d}
	if ticket == nil {
		span.SetStatus(codes.Error, d.Reason)
		metrics.ObserveExecution(OutcomeRejected, 0)
		return res, &admission.RejectedError{Decision: d}
	}
	res.QueuePosition = ticket.QueuePosition

	future, err := t.pool.Submit(ctx, work)
	if err != nil {
		ticket.Abort()
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		metrics.ObserveExecution(OutcomeAborted, 0)
		log.FromContext(ctx).Warn().Err(err).
			Str(log.FieldEvent, "execution.aborted").
			Str(log.FieldPolicy, d.Policy).
			Msg("admitted request could not be submitted")
		return res, err
	}

	value, werr := future.Wait()
	res.Elapsed = t.now().Sub(arrival)
	res.Value = value
	ticket.Done(res.Elapsed)

	normalized := admission.Normalize(res.Elapsed, res.QueuePosition)
	span.SetAttributes(telemetry.ExecutionAttributes(res.QueuePosition, res.Elapsed, normalized)...)

	outcome := OutcomeOK
	if werr != nil {
		outcome = OutcomeError
		errType := "error"
		var pe *workerpool.PanicError
		if errors.As(werr, &pe) {
			errType = "panic"
		}
		span.SetAttributes(telemetry.ErrorAttributes(errType)...)
		span.RecordError(werr)
		span.SetStatus(codes.Error, werr.Error())
	}
	metrics.ObserveExecution(outcome, res.Elapsed.Seconds())

	t.logger.Debug().
		Str(log.FieldEvent, "execution.finished").
		Str(log.FieldPolicy, d.Policy).
		Float64(log.FieldQueuePosition, res.QueuePosition).
		Dur(log.FieldElapsed, res.Elapsed).
		Dur(log.FieldNormalized, normalized).
		Str("outcome", outcome).
		Msg("request finished")

	return res, werr
}
