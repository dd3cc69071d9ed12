// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/admitd/internal/log"
)

type stubManager struct {
	startErr  error
	shutdowns atomic.Int32
}

func (s *stubManager) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *stubManager) Shutdown(context.Context) error {
	s.shutdowns.Add(1)
	return nil
}

func (s *stubManager) RegisterShutdownHook(string, ShutdownHook) {}

func TestApp_MissingManager(t *testing.T) {
	app := NewApp(log.WithComponent("test"), nil, nil)
	assert.ErrorIs(t, app.Run(context.Background()), ErrMissingManager)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app := NewApp(log.WithComponent("test"), &stubManager{}, func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestApp_StartErrorTriggersShutdown(t *testing.T) {
	boom := errors.New("boom")
	mgr := &stubManager{startErr: boom}
	app := NewApp(log.WithComponent("test"), mgr, nil)

	assert.ErrorIs(t, app.Run(context.Background()), boom)
	assert.Equal(t, int32(1), mgr.shutdowns.Load())
}

func TestApp_ReloadLoop(t *testing.T) {
	var calls atomic.Int32
	app := NewApp(log.WithComponent("test"), &stubManager{}, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("first reload fails")
		}
		return nil
	})

	trigger := make(chan os.Signal)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.reloadLoop(ctx, trigger)
		close(done)
	}()

	trigger <- syscall.SIGHUP
	trigger <- syscall.SIGHUP
	cancel()
	<-done

	require.Equal(t, int32(2), calls.Load())
}
