// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ManuGH/admitd/internal/control/http/problem"
	"github.com/ManuGH/admitd/internal/log"
)

func TestRecoverer_Returns500Problem(t *testing.T) {
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calculate", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, rec.Header().Get(problem.HeaderRequestID), body[problem.JSONKeyRequestID])
}

func TestRecoverer_RepanicsAbortHandler(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when missing", "", false},
		{"kept when valid", "abc-123", true},
		{"replaced when too long", strings.Repeat("a", maxRequestIDLen+1), false},
		{"replaced when not printable", "abc def", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = log.RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(problem.HeaderRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(problem.HeaderRequestID)
			assert.Equal(t, got, seen)
			if tt.keep {
				assert.Equal(t, tt.incoming, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}

func TestRateLimit_Returns429(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestLimit: 1})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/calculate", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestShouldTrace(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/healthz", "/readyz", "/metrics"} {
		assert.False(t, shouldTrace(httptest.NewRequest(http.MethodGet, p, nil)), p)
	}
	for _, p := range []string{"/calculate", "/api/admission"} {
		assert.True(t, shouldTrace(httptest.NewRequest(http.MethodGet, p, nil)), p)
	}
}

func TestSpanNameFormatter(t *testing.T) {
	t.Parallel()

	plain := httptest.NewRequest(http.MethodGet, "/calculate", nil)
	assert.Equal(t, "GET /calculate", spanNameFormatter("admitd", plain))

	withQuery := httptest.NewRequest(http.MethodGet, "/calculate?input=secret&deadline=1s", nil)
	assert.Equal(t, spanNameFormatter("admitd", plain), spanNameFormatter("admitd", withQuery))
}

func TestExtractTraceContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	traceID, spanID := ExtractTraceContext(req)
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "span")
	defer span.End()

	traceID, spanID = ExtractTraceContext(req.WithContext(ctx))
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), spanID)
}

func TestRoutePattern(t *testing.T) {
	r := NewRouter(StackConfig{EnableMetrics: true})
	var pattern string
	r.Get("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
		pattern = routePattern(req)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/items/{id}", pattern)

	assert.Equal(t, "unmatched", routePattern(httptest.NewRequest(http.MethodGet, "/x", nil)))
}

func TestApplyStack_SetsRequestIDAndRecovers(t *testing.T) {
	r := NewRouter(StackConfig{
		EnableMetrics:              true,
		EnableLogging:              true,
		TracingService:             "admitd-test",
		RateLimitRequestsPerMinute: 100,
	})
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(problem.HeaderRequestID))
}
