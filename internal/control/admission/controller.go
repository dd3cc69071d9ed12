// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package admission

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/admitd/internal/log"
	"github.com/ManuGH/admitd/internal/metrics"
)

// Controller admits a request only if its predicted latency fits the deadline.
// The prediction is the moving-average unit service time scaled by the number
// of service cycles queued ahead of the new arrival plus its own.
type Controller struct {
	// mu serializes decide+increment in Acquire so concurrent arrivals cannot
	// both pass a check that only one of them should.
	mu        sync.Mutex
	estimator *Estimator
	occupancy *Occupancy
	logger    zerolog.Logger
}

// Option configures a Controller.
type Option func(*controllerOptions)

type controllerOptions struct {
	offset float64
	logger *zerolog.Logger
}

// WithPendingAheadOffset overrides PendingAheadOffset.
func WithPendingAheadOffset(offset float64) Option {
	return func(o *controllerOptions) { o.offset = offset }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *controllerOptions) { o.logger = &l }
}

// NewController creates a controller with a window of windowSize samples
// guarding a pool of workers.
func NewController(windowSize, workers int, opts ...Option) *Controller {
	o := controllerOptions{offset: PendingAheadOffset}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.WithComponent("admission")
	if o.logger != nil {
		logger = *o.logger
	}
	return &Controller{
		estimator: NewEstimator(windowSize),
		occupancy: newOccupancy(workers, o.offset),
		logger:    logger,
	}
}

// Estimator exposes the controller's moving average.
func (c *Controller) Estimator() *Estimator { return c.estimator }

// Occupancy exposes the controller's in-flight counter.
func (c *Controller) Occupancy() *Occupancy { return c.occupancy }

// Policy implements Gate.
func (c *Controller) Policy() string { return PolicyLatency }

// Decide evaluates the admission rule against current state without mutating it.
//
// Rules (Strict Order):
// 1. active < workers -> Admit (spare capacity, no queueing expected)
// 2. predicted = estimate * (pendingAhead + 1)
// 3. predicted <= deadline -> Admit, else Reject
func (c *Controller) Decide(deadline time.Duration) Decision {
	active, pending := c.occupancy.snapshot()
	return c.decide(deadline, active, pending)
}

// CanAdmit is the boolean form of Decide.
func (c *Controller) CanAdmit(deadline time.Duration) bool {
	return c.Decide(deadline).Admit
}

func (c *Controller) decide(deadline time.Duration, active int, pending float64) Decision {
	estimate := c.estimator.Estimate()
	workers := c.occupancy.Workers()

	d := Decision{
		Policy:           PolicyLatency,
		Deadline:         deadline,
		Estimate:         estimate,
		PendingAhead:     pending,
		Active:           active,
		Workers:          workers,
		PredictedLatency: time.Duration(float64(estimate) * (pending + 1)),
	}

	// Rule 1: Spare capacity. The request starts immediately, so only its own
	// service time is reported.
	if active < workers {
		d.PredictedLatency = estimate
		d.Admit = true
		d.Reason = ReasonSpareCapacity
		return d
	}

	// Rule 2+3: Latency budget. An empty window predicts zero and admits.
	if d.PredictedLatency <= deadline {
		d.Admit = true
		d.Reason = ReasonWithinDeadline
		if estimate == 0 && c.estimator.Len() == 0 {
			d.Reason = ReasonColdStart
		}
		return d
	}

	d.Reason = ReasonDeadlineExceeded
	d.Problem = NewDeadlineExceeded(d.PredictedLatency, deadline)
	d.RetryAfterSeconds = retryAfterSeconds(d.PredictedLatency - deadline)
	return d
}

// Acquire implements Gate. Deciding, snapshotting the queue position and
// counting the request happen under one lock.
func (c *Controller) Acquire(deadline time.Duration) (*Ticket, Decision) {
	c.mu.Lock()
	active, pending := c.occupancy.snapshot()
	d := c.decide(deadline, active, pending)
	if d.Admit {
		c.occupancy.Increment()
	}
	c.mu.Unlock()

	c.observe(d)
	if !d.Admit {
		return nil, d
	}

	t := &Ticket{QueuePosition: pending, Decision: d}
	t.done = func(elapsed time.Duration) {
		c.occupancy.Decrement()
		sample := Normalize(elapsed, t.QueuePosition)
		c.estimator.Record(sample)
		metrics.ObserveNormalizedSample(sample.Seconds())
		metrics.SetEstimate(c.estimator.Estimate().Seconds())
	}
	t.abort = c.occupancy.Decrement
	return t, d
}

func (c *Controller) observe(d Decision) {
	if d.Admit {
		metrics.RecordAdmit(d.Policy, d.PredictedLatency.Seconds())
		c.logger.Debug().
			Str(log.FieldEvent, "admission.admitted").
			Str(log.FieldReason, d.Reason).
			Dur(log.FieldPredictedLatency, d.PredictedLatency).
			Dur(log.FieldDeadline, d.Deadline).
			Int(log.FieldActive, d.Active).
			Msg("request admitted")
		return
	}
	metrics.RecordReject(d.Policy, d.Reason, d.PredictedLatency.Seconds())
	c.logger.Info().
		Str(log.FieldEvent, "admission.rejected").
		Str(log.FieldReason, d.Reason).
		Dur(log.FieldPredictedLatency, d.PredictedLatency).
		Dur(log.FieldDeadline, d.Deadline).
		Dur(log.FieldEstimate, d.Estimate).
		Float64(log.FieldPendingAhead, d.PendingAhead).
		Int(log.FieldActive, d.Active).
		Int(log.FieldWorkers, d.Workers).
		Msg("request rejected")
}

// Snapshot implements Gate.
func (c *Controller) Snapshot() State {
	active, pending := c.occupancy.snapshot()
	samples := c.estimator.Samples()
	secs := make([]float64, len(samples))
	for i, s := range samples {
		secs[i] = s.Seconds()
	}
	return State{
		Policy:          PolicyLatency,
		Workers:         c.occupancy.Workers(),
		Active:          active,
		PendingAhead:    pending,
		WindowSize:      c.estimator.Size(),
		SamplesSeconds:  secs,
		EstimateSeconds: c.estimator.Estimate().Seconds(),
	}
}
