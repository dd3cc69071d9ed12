// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/admitd/internal/control/admission"
	"github.com/ManuGH/admitd/internal/execution"
	"github.com/ManuGH/admitd/internal/health"
	"github.com/ManuGH/admitd/internal/log"
	"github.com/ManuGH/admitd/internal/workerpool"
)

type fixture struct {
	server *Server
	ctrl   *admission.Controller
	pool   *workerpool.Pool
}

func newFixture(t *testing.T, gate admission.Gate) fixture {
	t.Helper()
	pool := workerpool.New(workerpool.Config{Workers: 1})
	pool.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pool.Close(ctx)
	})

	hm := health.NewManager("test")
	hm.RegisterChecker(health.NewPoolChecker(pool))

	srv := NewServer(Config{
		Tracker:         execution.NewTracker(gate, pool),
		Health:          hm,
		DefaultDeadline: 1800 * time.Millisecond,
		WorkloadTimeout: time.Millisecond,
	})
	ctrl, _ := gate.(*admission.Controller)
	return fixture{server: srv, ctrl: ctrl, pool: pool}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCalculate_OK(t *testing.T) {
	f := newFixture(t, admission.NewController(3, 1))

	rec := get(t, f.server.Handler(), "/calculate?input=hello")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Result, 64)

	assert.Equal(t, 1, f.ctrl.Estimator().Len())
	assert.Equal(t, 0, f.ctrl.Occupancy().Active())
}

func TestCalculate_Rejected(t *testing.T) {
	f := newFixture(t, admission.NewController(3, 1))
	for i := 0; i < 3; i++ {
		f.ctrl.Estimator().Record(time.Second)
		f.ctrl.Occupancy().Increment()
	}

	rec := get(t, f.server.Handler(), "/calculate?input=hello")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("Retry-After")) // ceil(3.5s - 1.8s)

	body := decode(t, rec)
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, admission.CodeDeadlineExceeded, body["code"])
	assert.EqualValues(t, 3500, body["predicted_latency_ms"])
	assert.EqualValues(t, 1800, body["deadline_ms"])

	// Rejection leaves state untouched.
	assert.Equal(t, 3, f.ctrl.Occupancy().Active())
	assert.Equal(t, 3, f.ctrl.Estimator().Len())
}

func TestCalculate_DeadlineParameter(t *testing.T) {
	f := newFixture(t, admission.NewController(3, 1))
	f.ctrl.Estimator().Record(time.Second)
	f.ctrl.Occupancy().Increment()

	// predicted = 1s * (0.5 + 1) = 1.5s
	rec := get(t, f.server.Handler(), "/calculate?input=x&deadline=1s")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, f.server.Handler(), "/calculate?input=x&deadline=2s")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCalculate_BadRequests(t *testing.T) {
	f := newFixture(t, admission.NewController(3, 1))

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"missing input", "/calculate", CodeInvalidInput},
		{"unparsable deadline", "/calculate?input=x&deadline=soon", CodeInvalidDeadline},
		{"negative deadline", "/calculate?input=x&deadline=-1s", CodeInvalidDeadline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, f.server.Handler(), tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode(t, rec)["code"])
		})
	}
	assert.Equal(t, 0, f.ctrl.Occupancy().Active())
}

func TestCalculate_ZeroDeadline(t *testing.T) {
	f := newFixture(t, admission.NewController(3, 1))

	// Idle pool: spare capacity admits any deadline.
	rec := get(t, f.server.Handler(), "/calculate?input=x&deadline=0s")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Busy pool with a non-zero estimate cannot meet a zero budget.
	f.ctrl.Occupancy().Increment()
	rec = get(t, f.server.Handler(), "/calculate?input=x&deadline=0s")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["deadline_ms"])
	f.ctrl.Occupancy().Decrement()
}

func TestCalculate_QueueLengthPolicy(t *testing.T) {
	q := admission.NewQueueLimiter(1)
	f := newFixture(t, q)

	held, d := q.Acquire(0)
	require.True(t, d.Admit)

	rec := get(t, f.server.Handler(), "/calculate?input=x")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, admission.CodeQueueFull, body["code"])

	held.Abort()
	rec = get(t, f.server.Handler(), "/calculate?input=x")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCalculate_PoolClosed(t *testing.T) {
	f := newFixture(t, admission.NewController(3, 1))
	require.NoError(t, f.pool.Close(context.Background()))

	rec := get(t, f.server.Handler(), "/calculate?input=x")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeUnavailable, decode(t, rec)["code"])
	assert.Equal(t, 0, f.ctrl.Occupancy().Active())

	rec = get(t, f.server.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCalculate_ErrorLogCarriesTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log.Configure(log.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { log.Configure(log.Config{Level: "info"}) })

	f := newFixture(t, admission.NewController(3, 1))
	require.NoError(t, f.pool.Close(context.Background()))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03},
		SpanID:     trace.SpanID{0x0a, 0x0b},
		TraceFlags: trace.FlagsSampled,
	})
	req := httptest.NewRequest(http.MethodGet, "/calculate?input=x", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	out := buf.String()
	assert.Contains(t, out, `"trace_id":"`+sc.TraceID().String()+`"`)
	assert.Contains(t, out, `"span_id":"`+sc.SpanID().String()+`"`)
	assert.Contains(t, out, `"event":"api.unavailable"`)
}

func TestAdmissionState(t *testing.T) {
	f := newFixture(t, admission.NewController(3, 2))
	f.ctrl.Estimator().Record(2 * time.Second)
	f.ctrl.Occupancy().Increment()

	rec := get(t, f.server.Handler(), "/api/admission")
	require.Equal(t, http.StatusOK, rec.Code)

	var state admission.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, admission.PolicyLatency, state.Policy)
	assert.Equal(t, 2, state.Workers)
	assert.Equal(t, 1, state.Active)
	assert.Equal(t, 3, state.WindowSize)
	assert.Equal(t, []float64{2}, state.SamplesSeconds)
	assert.Equal(t, 2.0, state.EstimateSeconds)
}

func TestProbesAndFallbacks(t *testing.T) {
	f := newFixture(t, admission.NewController(3, 1))
	h := f.server.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/readyz").Code)

	rec := get(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/calculate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
