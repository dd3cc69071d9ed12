// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/admitd/internal/config"
	"github.com/ManuGH/admitd/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	log.Configure(log.Config{
		Level:   "info",
		Service: config.DefaultLogService,
		Version: version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	cfg, err := config.NewLoader(path, version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger = log.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(log.FieldEvent, "config.loaded").
		Str("source", source).
		Str(log.FieldPolicy, cfg.Admission.Policy).
		Int(log.FieldWorkers, cfg.Admission.Workers).
		Dur(log.FieldDeadline, cfg.Admission.Deadline).
		Msg("configuration loaded")

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str(log.FieldEvent, "startup.failed").Msg("failed to build runtime")
	}

	app, err := rt.app(logger, reloadLogLevel(path, version))
	if err != nil {
		logger.Fatal().Err(err).Str(log.FieldEvent, "startup.failed").Msg("failed to build daemon")
	}
	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "daemon.exit_error").Msg("daemon exited with error")
		os.Exit(1)
	}
	logger.Info().Str(log.FieldEvent, "daemon.exit").Msg("daemon exited")
}

// reloadLogLevel re-reads the configuration and applies the logging settings.
// Admission settings are fixed for the lifetime of the process.
func reloadLogLevel(path, version string) func(context.Context) error {
	return func(context.Context) error {
		cfg, err := config.NewLoader(path, version).Load()
		if err != nil {
			return err
		}
		log.Configure(log.Config{
			Level:   cfg.LogLevel,
			Service: cfg.LogService,
			Version: cfg.Version,
		})
		return nil
	}
}
