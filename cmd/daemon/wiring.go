// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/admitd/internal/api"
	"github.com/ManuGH/admitd/internal/config"
	"github.com/ManuGH/admitd/internal/control/admission"
	"github.com/ManuGH/admitd/internal/control/middleware"
	"github.com/ManuGH/admitd/internal/daemon"
	"github.com/ManuGH/admitd/internal/execution"
	"github.com/ManuGH/admitd/internal/health"
	"github.com/ManuGH/admitd/internal/telemetry"
	"github.com/ManuGH/admitd/internal/workerpool"
)

// services holds everything main owns for the lifetime of the process.
type services struct {
	cfg      config.AppConfig
	gate     admission.Gate
	pool     *workerpool.Pool
	tracing  *telemetry.Provider
	server   *api.Server
	shutdown []namedShutdown
}

type namedShutdown struct {
	name string
	fn   daemon.ShutdownHook
}

// buildGate selects the admission policy.
func buildGate(cfg config.AdmissionConfig) (admission.Gate, error) {
	switch cfg.Policy {
	case config.PolicyLatency:
		return admission.NewController(cfg.WindowSize, cfg.Workers,
			admission.WithPendingAheadOffset(cfg.PendingAheadOffset)), nil
	case config.PolicyQueueLength:
		return admission.NewQueueLimiter(cfg.QueueLength), nil
	default:
		return nil, fmt.Errorf("unknown admission policy %q", cfg.Policy)
	}
}

func buildRuntime(ctx context.Context, cfg config.AppConfig) (*services, error) {
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	gate, err := buildGate(cfg.Admission)
	if err != nil {
		return nil, err
	}

	pool := workerpool.New(workerpool.Config{Workers: cfg.Admission.Workers})
	pool.Start()

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewPoolChecker(pool))
	hm.RegisterChecker(health.NewGateChecker(gate))

	stack := middleware.StackConfig{
		EnableMetrics: true,
		EnableLogging: true,
	}
	if cfg.Telemetry.Enabled {
		stack.TracingService = cfg.LogService
	}
	if cfg.API.RateLimit.Enabled {
		stack.RateLimitRequestsPerMinute = cfg.API.RateLimit.RequestsPerMinute
	}

	srv := api.NewServer(api.Config{
		Tracker:         execution.NewTracker(gate, pool),
		Health:          hm,
		DefaultDeadline: cfg.Admission.Deadline,
		WorkloadTimeout: cfg.Workload.Timeout,
		Stack:           stack,
	})

	rt := &services{cfg: cfg, gate: gate, pool: pool, tracing: tp, server: srv}
	// Registered in start order; the manager runs them LIFO.
	rt.shutdown = []namedShutdown{
		{"telemetry", tp.Shutdown},
		{"workerpool", pool.Close},
	}
	return rt, nil
}

func (rt *services) app(logger zerolog.Logger, reload daemon.ReloadFunc) (*daemon.App, error) {
	mgr, err := daemon.NewManager(daemon.ServerConfig{
		ListenAddr:        rt.cfg.API.ListenAddr,
		MetricsAddr:       rt.cfg.API.MetricsAddr,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   rt.cfg.API.ShutdownTimeout,
	}, daemon.Deps{
		Logger:         logger,
		APIHandler:     rt.server.Handler(),
		MetricsHandler: promhttp.Handler(),
	})
	if err != nil {
		return nil, fmt.Errorf("daemon manager: %w", err)
	}
	for _, h := range rt.shutdown {
		mgr.RegisterShutdownHook(h.name, h.fn)
	}
	return daemon.NewApp(logger, mgr, reload), nil
}
