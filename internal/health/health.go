// SPDX-License-Identifier: MIT

// Package health provides health and readiness check functionality for admitd.
// Liveness always answers 200; readiness fails while any checker is unhealthy.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/admitd/internal/control/admission"
	"github.com/ManuGH/admitd/internal/log"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager manages health and readiness checks
type Manager struct {
	version string

	mu       sync.RWMutex
	checkers []Checker
}

// NewManager creates a new health check manager
func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// RegisterChecker adds a health checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.mu.Lock()
	m.checkers = append(m.checkers, checker)
	m.mu.Unlock()
}

func (m *Manager) runChecks(ctx context.Context) (map[string]CheckResult, Status) {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	if len(checkers) == 0 {
		return nil, StatusHealthy
	}

	results := make(map[string]CheckResult, len(checkers))
	overall := StatusHealthy
	for _, c := range checkers {
		res := c.Check(ctx)
		results[c.Name()] = res
		switch res.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall != StatusUnhealthy {
				overall = StatusDegraded
			}
		}
	}
	return results, overall
}

// Health performs a health check (liveness probe).
// Component checks run only when verbose is set.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now(),
	}
	if verbose {
		resp.Checks, resp.Status = m.runChecks(ctx)
	}
	return resp
}

// Ready performs a readiness check (readiness probe).
// Degraded components keep the service ready; unhealthy ones do not.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	checks, status := m.runChecks(ctx)
	return ReadinessResponse{
		Ready:     status != StatusUnhealthy,
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// ServeHealth handles HTTP health check requests
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "health")
	verbose := r.URL.Query().Get("verbose") == "true"

	resp := m.Health(r.Context(), verbose)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // Always 200 for liveness

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "health.encode_error").Msg("failed to encode health response")
	}
}

// ServeReady handles HTTP readiness check requests
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "readiness")

	resp := m.Ready(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if resp.Ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "readiness.encode_error").Msg("failed to encode readiness response")
	}

	logger.Debug().
		Str(log.FieldEvent, "readiness.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("readiness check performed")
}

// PoolStatus is the view of a worker pool the pool checker needs.
type PoolStatus interface {
	Closed() bool
	Busy() int
	Workers() int
}

// PoolChecker reports an unhealthy state once the pool stopped accepting work.
type PoolChecker struct {
	pool PoolStatus
}

// NewPoolChecker creates a checker for a worker pool.
func NewPoolChecker(pool PoolStatus) *PoolChecker {
	return &PoolChecker{pool: pool}
}

func (c *PoolChecker) Name() string { return "worker_pool" }

func (c *PoolChecker) Check(context.Context) CheckResult {
	if c.pool.Closed() {
		return CheckResult{Status: StatusUnhealthy, Error: "worker pool closed"}
	}
	if c.pool.Busy() >= c.pool.Workers() {
		return CheckResult{Status: StatusDegraded, Message: "all workers busy"}
	}
	return CheckResult{Status: StatusHealthy}
}

// GateChecker reports a degraded state while the admission gate is saturated.
// Saturation is expected under load, so it never fails readiness.
type GateChecker struct {
	gate admission.Gate
}

// NewGateChecker creates a checker for an admission gate.
func NewGateChecker(gate admission.Gate) *GateChecker {
	return &GateChecker{gate: gate}
}

func (c *GateChecker) Name() string { return "admission" }

func (c *GateChecker) Check(context.Context) CheckResult {
	s := c.gate.Snapshot()
	capacity := s.Workers
	if s.Policy == admission.PolicyQueueLength {
		capacity = s.QueueLength
	}
	if capacity > 0 && s.Active >= capacity {
		return CheckResult{Status: StatusDegraded, Message: s.Policy + " gate saturated"}
	}
	return CheckResult{Status: StatusHealthy, Message: s.Policy}
}
