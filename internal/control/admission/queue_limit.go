// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package admission

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/admitd/internal/log"
	"github.com/ManuGH/admitd/internal/metrics"
)

// DefaultQueueLength is the number of concurrently admitted requests of the
// queue-length policy.
const DefaultQueueLength = 2

// QueueLimiter admits while fewer than limit requests are in flight and
// rejects otherwise. Deadlines are ignored.
type QueueLimiter struct {
	sem   *semaphore.Weighted
	limit int

	// mu keeps active and the active gauge in step.
	mu     sync.Mutex
	active int
	logger zerolog.Logger
}

// NewQueueLimiter creates a limiter with limit slots. A limit below 1 falls
// back to DefaultQueueLength.
func NewQueueLimiter(limit int) *QueueLimiter {
	if limit < 1 {
		limit = DefaultQueueLength
	}
	return &QueueLimiter{
		sem:    semaphore.NewWeighted(int64(limit)),
		limit:  limit,
		logger: log.WithComponent("admission"),
	}
}

// Policy implements Gate.
func (q *QueueLimiter) Policy() string { return PolicyQueueLength }

// Limit returns the number of slots.
func (q *QueueLimiter) Limit() int { return q.limit }

// Acquire implements Gate.
func (q *QueueLimiter) Acquire(deadline time.Duration) (*Ticket, Decision) {
	d := Decision{
		Policy:   PolicyQueueLength,
		Deadline: deadline,
		Workers:  q.limit,
	}

	if !q.sem.TryAcquire(1) {
		d.Active = q.Active()
		d.Reason = ReasonQueueFull
		d.Problem = NewQueueFull(d.Active, q.limit)
		d.RetryAfterSeconds = retryAfterSeconds(0)
		metrics.RecordReject(d.Policy, d.Reason, 0)
		q.logger.Info().
			Str(log.FieldEvent, "admission.rejected").
			Str(log.FieldReason, d.Reason).
			Int(log.FieldActive, d.Active).
			Int("limit", q.limit).
			Msg("request rejected")
		return nil, d
	}

	d.Active = q.add(1)
	d.Admit = true
	d.Reason = ReasonQueueAvailable
	metrics.RecordAdmit(d.Policy, 0)

	release := func() {
		q.add(-1)
		q.sem.Release(1)
	}
	t := &Ticket{QueuePosition: float64(d.Active), Decision: d}
	t.done = func(time.Duration) { release() }
	t.abort = release
	return t, d
}

// add moves the in-flight count by delta and returns the value before the change.
func (q *QueueLimiter) add(delta int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	prev := q.active
	q.active += delta
	metrics.SetActive(float64(q.active))
	return prev
}

// Active returns the number of held slots.
func (q *QueueLimiter) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Snapshot implements Gate.
func (q *QueueLimiter) Snapshot() State {
	return State{
		Policy:      PolicyQueueLength,
		Active:      q.Active(),
		QueueLength: q.limit,
	}
}
