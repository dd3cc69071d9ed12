// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the admitd HTTP surface: the admission-controlled
// /calculate endpoint, the gate snapshot and the health probes.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ManuGH/admitd/internal/control/middleware"
	"github.com/ManuGH/admitd/internal/execution"
	"github.com/ManuGH/admitd/internal/health"
	"github.com/ManuGH/admitd/internal/log"
)

// Config wires the server's collaborators.
type Config struct {
	Tracker *execution.Tracker
	Health  *health.Manager

	// DefaultDeadline applies when a request carries no deadline parameter.
	DefaultDeadline time.Duration
	// WorkloadTimeout is the duration of one /calculate computation.
	WorkloadTimeout time.Duration

	Stack middleware.StackConfig
}

// Server is the HTTP API of admitd.
type Server struct {
	tracker         *execution.Tracker
	health          *health.Manager
	defaultDeadline time.Duration
	workloadTimeout time.Duration
	logger          zerolog.Logger

	handler http.Handler
}

// NewServer builds the router and its middleware stack.
func NewServer(cfg Config) *Server {
	s := &Server{
		tracker:         cfg.Tracker,
		health:          cfg.Health,
		defaultDeadline: cfg.DefaultDeadline,
		workloadTimeout: cfg.WorkloadTimeout,
		logger:          log.WithComponent("api"),
	}
	if s.health == nil {
		s.health = health.NewManager("")
	}
	s.handler = s.routes(cfg.Stack)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes(stack middleware.StackConfig) http.Handler {
	r := middleware.NewRouter(stack)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Get("/calculate", s.handleCalculate)
	r.Route("/api", func(r chi.Router) {
		r.Get("/admission", s.handleAdmissionState)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, "system/not-found", "Not Found", "NOT_FOUND", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, "system/method-not-allowed", "Method Not Allowed", "METHOD_NOT_ALLOWED", "")
	})
	return r
}
