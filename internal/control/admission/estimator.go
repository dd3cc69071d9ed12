// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package admission

import (
	"sync"
	"time"
)

// DefaultWindowSize is the number of samples kept by the moving average.
const DefaultWindowSize = 3

// Estimator keeps a bounded FIFO window of normalized service-time samples
// and reports their arithmetic mean.
type Estimator struct {
	mu      sync.Mutex
	size    int
	samples []time.Duration
}

// NewEstimator creates an estimator holding at most size samples.
// A size below 1 falls back to DefaultWindowSize.
func NewEstimator(size int) *Estimator {
	if size < 1 {
		size = DefaultWindowSize
	}
	return &Estimator{
		size:    size,
		samples: make([]time.Duration, 0, size),
	}
}

// Record appends a sample, evicting the oldest one when the window is full.
// Negative samples are a caller error and are stored as given.
func (e *Estimator) Record(sample time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.samples) == e.size {
		copy(e.samples, e.samples[1:])
		e.samples = e.samples[:len(e.samples)-1]
	}
	e.samples = append(e.samples, sample)
}

// Estimate returns the mean of the current window.
//
// An empty window yields 0. That is the intended bootstrap: until the first
// sample lands every request is predicted to be free and gets admitted.
func (e *Estimator) Estimate() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, s := range e.samples {
		sum += s
	}
	return sum / time.Duration(len(e.samples))
}

// Samples returns a copy of the window in insertion order.
func (e *Estimator) Samples() []time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]time.Duration, len(e.samples))
	copy(out, e.samples)
	return out
}

// Len returns the number of samples currently held.
func (e *Estimator) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.samples)
}

// Size returns the window capacity.
func (e *Estimator) Size() int {
	return e.size
}
