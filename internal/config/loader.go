// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultLogLevel           = "info"
	DefaultLogService         = "admitd"
	DefaultListenAddr         = ":8088"
	DefaultMetricsAddr        = ":9090"
	DefaultShutdownTimeout    = 10 * time.Second
	DefaultRequestsPerMinute  = 600
	DefaultWindowSize         = 3
	DefaultWorkers            = 1
	DefaultQueueLength        = 2
	DefaultDeadline           = 1800 * time.Millisecond
	DefaultPendingAheadOffset = 0.5
	DefaultWorkloadTimeout    = 500 * time.Millisecond
	DefaultTracingExporter    = "grpc"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampling    = 1.0
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Defaults returns the configuration used when neither file nor env set a key.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   DefaultLogLevel,
		LogService: DefaultLogService,
		API: APIConfig{
			ListenAddr:      DefaultListenAddr,
			MetricsAddr:     DefaultMetricsAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: DefaultRequestsPerMinute,
			},
		},
		Admission: AdmissionConfig{
			Policy:             PolicyLatency,
			WindowSize:         DefaultWindowSize,
			Workers:            DefaultWorkers,
			QueueLength:        DefaultQueueLength,
			Deadline:           DefaultDeadline,
			PendingAheadOffset: DefaultPendingAheadOffset,
		},
		Workload: WorkloadConfig{
			Timeout: DefaultWorkloadTimeout,
		},
		Telemetry: TelemetryConfig{
			Exporter:     DefaultTracingExporter,
			Endpoint:     DefaultTracingEndpoint,
			SamplingRate: DefaultTracingSampling,
		},
	}
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (AppConfig, error) {
	// 1. Set defaults
	cfg := Defaults()

	// 2. Load from file (if provided)
	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	// 3. Override with environment variables (highest priority)
	l.mergeEnvConfig(&cfg)

	// 4. Version from binary
	cfg.Version = l.version

	// 5. Validate final configuration
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return decodeStrict(data)
}

func decodeStrict(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// mergeFileConfig applies keys present in the file over cfg.
func mergeFileConfig(cfg *AppConfig, src *FileConfig) error {
	if src.LogLevel != "" {
		cfg.LogLevel = src.LogLevel
	}
	if src.LogService != "" {
		cfg.LogService = src.LogService
	}

	if api := src.API; api != nil {
		if api.ListenAddr != "" {
			cfg.API.ListenAddr = api.ListenAddr
		}
		if api.MetricsAddr != "" {
			cfg.API.MetricsAddr = api.MetricsAddr
		}
		if err := mergeDuration(&cfg.API.ShutdownTimeout, "api.shutdownTimeout", api.ShutdownTimeout); err != nil {
			return err
		}
		if rl := api.RateLimit; rl != nil {
			if rl.Enabled != nil {
				cfg.API.RateLimit.Enabled = *rl.Enabled
			}
			if rl.RequestsPerMinute != nil {
				cfg.API.RateLimit.RequestsPerMinute = *rl.RequestsPerMinute
			}
		}
	}

	if adm := src.Admission; adm != nil {
		if adm.Policy != "" {
			cfg.Admission.Policy = adm.Policy
		}
		if adm.WindowSize != nil {
			cfg.Admission.WindowSize = *adm.WindowSize
		}
		if adm.Workers != nil {
			cfg.Admission.Workers = *adm.Workers
		}
		if adm.QueueLength != nil {
			cfg.Admission.QueueLength = *adm.QueueLength
		}
		if err := mergeDuration(&cfg.Admission.Deadline, "admission.deadline", adm.Deadline); err != nil {
			return err
		}
		if adm.PendingAheadOffset != nil {
			cfg.Admission.PendingAheadOffset = *adm.PendingAheadOffset
		}
	}

	if wl := src.Workload; wl != nil {
		if err := mergeDuration(&cfg.Workload.Timeout, "workload.timeout", wl.Timeout); err != nil {
			return err
		}
	}

	if tel := src.Telemetry; tel != nil {
		if tel.Enabled != nil {
			cfg.Telemetry.Enabled = *tel.Enabled
		}
		if tel.Exporter != "" {
			cfg.Telemetry.Exporter = tel.Exporter
		}
		if tel.Endpoint != "" {
			cfg.Telemetry.Endpoint = tel.Endpoint
		}
		if tel.SamplingRate != nil {
			cfg.Telemetry.SamplingRate = *tel.SamplingRate
		}
	}
	return nil
}

func mergeDuration(dst *time.Duration, field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

// mergeEnvConfig overrides cfg with ADMITD_* variables. The current value
// serves as the fallback so unset or invalid variables keep file/defaults.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvPrefix+"LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString(EnvPrefix+"LOG_SERVICE", cfg.LogService)

	cfg.API.ListenAddr = l.envString(EnvPrefix+"LISTEN", cfg.API.ListenAddr)
	cfg.API.MetricsAddr = l.envString(EnvPrefix+"METRICS_LISTEN", cfg.API.MetricsAddr)
	cfg.API.ShutdownTimeout = l.envDuration(EnvPrefix+"SHUTDOWN_TIMEOUT", cfg.API.ShutdownTimeout)
	cfg.API.RateLimit.Enabled = l.envBool(EnvPrefix+"RATELIMIT_ENABLED", cfg.API.RateLimit.Enabled)
	cfg.API.RateLimit.RequestsPerMinute = l.envInt(EnvPrefix+"RATELIMIT_RPM", cfg.API.RateLimit.RequestsPerMinute)

	cfg.Admission.Policy = l.envString(EnvPrefix+"ADMISSION_POLICY", cfg.Admission.Policy)
	cfg.Admission.WindowSize = l.envInt(EnvPrefix+"WINDOW_SIZE", cfg.Admission.WindowSize)
	cfg.Admission.Workers = l.envInt(EnvPrefix+"WORKERS", cfg.Admission.Workers)
	cfg.Admission.QueueLength = l.envInt(EnvPrefix+"QUEUE_LENGTH", cfg.Admission.QueueLength)
	cfg.Admission.Deadline = l.envDuration(EnvPrefix+"DEADLINE", cfg.Admission.Deadline)
	cfg.Admission.PendingAheadOffset = l.envFloat(EnvPrefix+"PENDING_AHEAD_OFFSET", cfg.Admission.PendingAheadOffset)

	cfg.Workload.Timeout = l.envDuration(EnvPrefix+"WORKLOAD_TIMEOUT", cfg.Workload.Timeout)

	cfg.Telemetry.Enabled = l.envBool(EnvPrefix+"TRACING_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvPrefix+"TRACING_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvPrefix+"TRACING_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvPrefix+"TRACING_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}
