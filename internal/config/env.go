// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/admitd/internal/log"
)

// EnvPrefix is shared by every environment variable admitd reads.
const EnvPrefix = "ADMITD_"

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue, "string", func(s string) (string, error) { return s, nil },
		func(e *zerolog.Event, k, v string) *zerolog.Event { return e.Str(k, v) })
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, "integer", strconv.Atoi,
		func(e *zerolog.Event, k string, v int) *zerolog.Event { return e.Int(k, v) })
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, "float",
		func(s string) (float64, error) { return strconv.ParseFloat(s, 64) },
		func(e *zerolog.Event, k string, v float64) *zerolog.Event { return e.Float64(k, v) })
}

// ParseDuration reads a duration from environment variable in Go duration format (e.g. "5s").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, "duration", time.ParseDuration,
		func(e *zerolog.Event, k string, v time.Duration) *zerolog.Event { return e.Dur(k, v) })
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, "boolean", parseBool,
		func(e *zerolog.Event, k string, v bool) *zerolog.Event { return e.Bool(k, v) })
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, strconv.ErrSyntax
	}
}

// parseEnv resolves key against the process environment. Empty or
// unparsable values fall back to defaultValue; every outcome is logged.
func parseEnv[T any](
	key string,
	defaultValue T,
	kind string,
	parse func(string) (T, error),
	field func(e *zerolog.Event, k string, v T) *zerolog.Event,
) T {
	logger := log.WithComponent("config")

	raw, ok := os.LookupEnv(key)
	if !ok {
		field(logger.Debug(), "default", defaultValue).
			Str("key", key).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	if raw == "" {
		field(logger.Debug(), "default", defaultValue).
			Str("key", key).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return defaultValue
	}

	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		field(logger.Warn(), "default", defaultValue).
			Str("key", key).
			Str("value", raw).
			Msgf("invalid %s in environment variable, using default", kind)
		return defaultValue
	}

	field(logger.Debug(), "value", v).
		Str("key", key).
		Str("source", "environment").
		Msg("using environment variable")
	return v
}
