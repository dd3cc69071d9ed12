// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/admitd/internal/log"
)

func TestMain(m *testing.M) {
	// signal.Notify starts a process-wide watcher that outlives the test.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("os/signal.loop"))
}

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve listen addr: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	})
}

func fetch(t *testing.T, url string) string {
	t.Helper()
	client := &http.Client{Timeout: time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(ServerConfig{}, Deps{Logger: log.WithComponent("test")})
	assert.ErrorIs(t, err, ErrMissingAPIHandler)

	_, err = NewManager(ServerConfig{}, Deps{APIHandler: http.NotFoundHandler(), Logger: log.WithComponent("test").Level(zerolog.Disabled)})
	assert.ErrorIs(t, err, ErrMissingLogger)

	mgr, err := NewManager(ServerConfig{}, Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	mgr, err := NewManager(ServerConfig{}, Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)
	assert.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_ServesAndShutsDown(t *testing.T) {
	apiAddr := reserveListenAddr(t)
	metricsAddr := reserveListenAddr(t)

	mgr, err := NewManager(ServerConfig{
		ListenAddr:      apiAddr,
		MetricsAddr:     metricsAddr,
		ShutdownTimeout: time.Second,
	}, Deps{
		Logger:         log.WithComponent("test"),
		APIHandler:     okHandler("api"),
		MetricsHandler: okHandler("metrics"),
	})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"first", "second"} {
		mgr.RegisterShutdownHook(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()

	require.NoError(t, waitForListen(apiAddr, 2*time.Second))
	require.NoError(t, waitForListen(metricsAddr, 2*time.Second))
	assert.Equal(t, "api", fetch(t, "http://"+apiAddr+"/"))
	assert.Equal(t, "metrics", fetch(t, "http://"+metricsAddr+"/"))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("manager did not stop")
	}

	// Hooks run LIFO.
	assert.Equal(t, []string{"second", "first"}, order)
	// A second shutdown is a no-op.
	assert.NoError(t, mgr.Shutdown(context.Background()))
}

func TestManager_StartTwice(t *testing.T) {
	addr := reserveListenAddr(t)
	mgr, err := NewManager(ServerConfig{ListenAddr: addr}, Deps{Logger: log.WithComponent("test"), APIHandler: okHandler("")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()
	require.NoError(t, waitForListen(addr, 2*time.Second))

	assert.Error(t, mgr.Start(ctx))

	cancel()
	require.NoError(t, <-done)
}

func TestManager_ListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	hookErr := errors.New("hook failed")
	mgr, err := NewManager(ServerConfig{ListenAddr: ln.Addr().String(), ShutdownTimeout: time.Second},
		Deps{Logger: log.WithComponent("test"), APIHandler: okHandler("")})
	require.NoError(t, err)
	mgr.RegisterShutdownHook("broken", func(context.Context) error { return hookErr })

	err = mgr.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api server")
	assert.ErrorIs(t, err, hookErr)
}
