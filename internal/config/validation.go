// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ManuGH/admitd/internal/validate"
)

// MaxWindowSize bounds the estimator window; the mean is computed under the
// admission lock on every decision.
const MaxWindowSize = 1024

// Validate validates an AppConfig using the centralized validation package.
// Failures wrap ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil || cfg.LogLevel == "" {
		v.AddError("LogLevel", "unknown log level", cfg.LogLevel)
	}

	v.ListenAddr("API.ListenAddr", cfg.API.ListenAddr)
	v.ListenAddr("API.MetricsAddr", cfg.API.MetricsAddr)
	v.PositiveDuration("API.ShutdownTimeout", cfg.API.ShutdownTimeout)
	if cfg.API.RateLimit.Enabled {
		v.Positive("API.RateLimit.RequestsPerMinute", cfg.API.RateLimit.RequestsPerMinute)
	}

	v.OneOf("Admission.Policy", cfg.Admission.Policy, []string{PolicyLatency, PolicyQueueLength})
	v.Range("Admission.WindowSize", cfg.Admission.WindowSize, 1, MaxWindowSize)
	v.Positive("Admission.Workers", cfg.Admission.Workers)
	v.Positive("Admission.QueueLength", cfg.Admission.QueueLength)
	v.NonNegativeDuration("Admission.Deadline", cfg.Admission.Deadline)
	v.NonNegativeFloat("Admission.PendingAheadOffset", cfg.Admission.PendingAheadOffset)

	v.PositiveDuration("Workload.Timeout", cfg.Workload.Timeout)

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
	}
	v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)

	if !v.IsValid() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, v.Err())
	}
	return nil
}
