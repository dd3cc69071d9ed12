// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/admitd/internal/log"
)

// ReloadFunc re-reads mutable runtime settings.
type ReloadFunc func(ctx context.Context) error

// App owns the long-lived runtime lifecycle and delegates server management
// to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	reload       ReloadFunc
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. reload may be nil.
func NewApp(logger zerolog.Logger, manager Manager, reload ReloadFunc) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		reload:       reload,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// SIGHUP trigger for manual reload.
	if a.reload != nil && a.reloadSignal != nil {
		hupChan := make(chan os.Signal, 1)
		signal.Notify(hupChan, a.reloadSignal)

		g.Go(func() error {
			defer signal.Stop(hupChan)
			a.reloadLoop(ctx, hupChan)
			return nil
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

func (a *App) reloadLoop(ctx context.Context, trigger <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-trigger:
			a.logger.Info().
				Str(log.FieldEvent, "config.reload_signal").
				Str("signal", sig.String()).
				Msg("received reload signal, reloading config")

			if err := a.reload(ctx); err != nil {
				a.logger.Warn().
					Err(err).
					Str(log.FieldEvent, "config.reload_failed").
					Msg("config reload failed")
			}
		}
	}
}
