// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Admission policies.
const (
	PolicyLatency     = "latency"
	PolicyQueueLength = "queue_length"
)

// AppConfig is the effective runtime configuration.
type AppConfig struct {
	Version string

	LogLevel   string
	LogService string

	API       APIConfig
	Admission AdmissionConfig
	Workload  WorkloadConfig
	Telemetry TelemetryConfig
}

// APIConfig holds the HTTP listener settings.
type APIConfig struct {
	ListenAddr      string
	MetricsAddr     string
	ShutdownTimeout time.Duration
	RateLimit       RateLimitConfig
}

// RateLimitConfig controls the per-IP edge limiter.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// AdmissionConfig selects and tunes the admission gate.
type AdmissionConfig struct {
	Policy             string
	WindowSize         int
	Workers            int
	QueueLength        int
	Deadline           time.Duration
	PendingAheadOffset float64
}

// WorkloadConfig tunes the synthetic workload.
type WorkloadConfig struct {
	Timeout time.Duration
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// FileConfig is the YAML file shape. Pointer fields distinguish "unset" from
// zero values so that only keys present in the file override defaults.
type FileConfig struct {
	LogLevel   string `yaml:"logLevel,omitempty"`
	LogService string `yaml:"logService,omitempty"`

	API       *APIFileConfig       `yaml:"api,omitempty"`
	Admission *AdmissionFileConfig `yaml:"admission,omitempty"`
	Workload  *WorkloadFileConfig  `yaml:"workload,omitempty"`
	Telemetry *TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

// APIFileConfig is the YAML shape of APIConfig.
type APIFileConfig struct {
	ListenAddr      string               `yaml:"listenAddr,omitempty"`
	MetricsAddr     string               `yaml:"metricsAddr,omitempty"`
	ShutdownTimeout string               `yaml:"shutdownTimeout,omitempty"`
	RateLimit       *RateLimitFileConfig `yaml:"rateLimit,omitempty"`
}

// RateLimitFileConfig is the YAML shape of RateLimitConfig.
type RateLimitFileConfig struct {
	Enabled           *bool `yaml:"enabled,omitempty"`
	RequestsPerMinute *int  `yaml:"requestsPerMinute,omitempty"`
}

// AdmissionFileConfig is the YAML shape of AdmissionConfig.
type AdmissionFileConfig struct {
	Policy             string   `yaml:"policy,omitempty"`
	WindowSize         *int     `yaml:"windowSize,omitempty"`
	Workers            *int     `yaml:"workers,omitempty"`
	QueueLength        *int     `yaml:"queueLength,omitempty"`
	Deadline           string   `yaml:"deadline,omitempty"`
	PendingAheadOffset *float64 `yaml:"pendingAheadOffset,omitempty"`
}

// WorkloadFileConfig is the YAML shape of WorkloadConfig.
type WorkloadFileConfig struct {
	Timeout string `yaml:"timeout,omitempty"`
}

// TelemetryFileConfig is the YAML shape of TelemetryConfig.
type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
