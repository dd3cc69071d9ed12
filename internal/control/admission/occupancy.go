// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package admission

import (
	"math"
	"sync"

	"github.com/ManuGH/admitd/internal/log"
	"github.com/ManuGH/admitd/internal/metrics"
)

// PendingAheadOffset is the empirical mid-cycle offset subtracted from the
// active/workers ratio. It is a tuning knob, not a derived quantity.
const PendingAheadOffset = 0.5

// RuleOccupancyNegative labels decrements on an empty counter.
const RuleOccupancyNegative = "occupancy_negative"

// Occupancy counts admitted requests that have not completed yet.
type Occupancy struct {
	mu      sync.Mutex
	active  int
	workers int
	offset  float64
}

// NewOccupancy creates a tracker for a pool of the given size.
// A workers value below 1 falls back to 1.
func NewOccupancy(workers int) *Occupancy {
	return newOccupancy(workers, PendingAheadOffset)
}

func newOccupancy(workers int, offset float64) *Occupancy {
	if workers < 1 {
		workers = 1
	}
	if offset < 0 || math.IsNaN(offset) {
		offset = PendingAheadOffset
	}
	return &Occupancy{workers: workers, offset: offset}
}

// Increment registers one more in-flight request.
func (o *Occupancy) Increment() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active++
	metrics.SetActive(float64(o.active))
}

// Decrement releases one in-flight request. The counter never drops below zero;
// a decrement on an empty tracker is logged and counted as an invariant violation.
func (o *Occupancy) Decrement() {
	o.mu.Lock()
	if o.active == 0 {
		o.mu.Unlock()
		metrics.RecordInvariantViolation(RuleOccupancyNegative)
		logger := log.WithComponent("admission")
		logger.Error().
			Str(log.FieldEvent, "admission.invariant_violation").
			Str("rule", RuleOccupancyNegative).
			Msg("occupancy decrement without matching increment")
		return
	}
	o.active--
	metrics.SetActive(float64(o.active))
	o.mu.Unlock()
}

// PendingAhead estimates how many service cycles separate a new arrival
// from its own execution start: max(0, active/workers - offset).
func (o *Occupancy) PendingAhead() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pendingAheadLocked()
}

func (o *Occupancy) pendingAheadLocked() float64 {
	return math.Max(0, float64(o.active)/float64(o.workers)-o.offset)
}

// Active returns the number of in-flight requests.
func (o *Occupancy) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Workers returns the pool capacity the tracker was built for.
func (o *Occupancy) Workers() int {
	return o.workers
}

// snapshot returns active and pending-ahead under a single lock.
func (o *Occupancy) snapshot() (active int, pending float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active, o.pendingAheadLocked()
}
