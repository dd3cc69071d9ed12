// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package workload provides the stand-in inference job: a CPU-bound loop with
// a fixed wall-clock cost.
package workload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultTimeout is the per-call processing time of Calculate.
const DefaultTimeout = 500 * time.Millisecond

// Calculate repeatedly hashes input with SHA-256 until timeout has elapsed
// and returns the last hex digest. The running hash is fed the previous
// digest on every round, so the result depends on how many rounds fit.
func Calculate(input string, timeout time.Duration) string {
	start := time.Now()
	output := input
	h := sha256.New()
	for time.Since(start) < timeout {
		h.Write([]byte(output))
		output = hex.EncodeToString(h.Sum(nil))
	}
	return output
}

// Task adapts Calculate to the worker pool's task signature.
func Task(input string, timeout time.Duration) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		return Calculate(input, timeout), nil
	}
}
