// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/admitd/internal/control/admission"
	"github.com/ManuGH/admitd/internal/control/middleware"
	"github.com/ManuGH/admitd/internal/log"
	"github.com/ManuGH/admitd/internal/workerpool"
	"github.com/ManuGH/admitd/internal/workload"
)

// CalculateResponse is the body of a successful /calculate call.
type CalculateResponse struct {
	Result string `json:"result"`
}

// handleCalculate runs the workload under admission control.
//
//	GET /calculate?input=<s>[&deadline=<duration>]
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input := q.Get("input")
	if input == "" {
		writeProblem(w, r, http.StatusBadRequest, "request/invalid-input", "Invalid Input",
			CodeInvalidInput, "query parameter 'input' is required")
		return
	}

	deadline := s.defaultDeadline
	if raw := q.Get("deadline"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeProblem(w, r, http.StatusBadRequest, "request/invalid-deadline", "Invalid Deadline",
				CodeInvalidDeadline, "query parameter 'deadline' must be a non-negative duration such as 1.5s")
			return
		}
		deadline = d
	}

	res, err := s.tracker.Execute(r.Context(), deadline, workload.Task(input, s.workloadTimeout))
	if err != nil {
		s.writeExecuteError(w, r, err)
		return
	}

	result, _ := res.Value.(string)
	writeJSON(w, r, http.StatusOK, CalculateResponse{Result: result})
}

func (s *Server) writeExecuteError(w http.ResponseWriter, r *http.Request, err error) {
	var rej *admission.RejectedError
	if errors.As(err, &rej) {
		admission.WriteDecision(w, r, rej.Decision)
		return
	}

	logger := requestLogger(r)
	if errors.Is(err, workerpool.ErrPoolClosed) {
		logger.Warn().Err(err).Str(log.FieldEvent, "api.unavailable").Msg("worker pool closed")
		writeProblem(w, r, http.StatusServiceUnavailable, "system/unavailable", "Service Unavailable",
			CodeUnavailable, "server is shutting down")
		return
	}

	logger.Error().Err(err).Str(log.FieldEvent, "api.work_failed").Msg("calculation failed")
	writeProblem(w, r, http.StatusInternalServerError, "system/work-failed", "Internal Server Error",
		CodeWorkFailed, "calculation failed")
}

// handleAdmissionState serves a read-only snapshot of the admission gate.
//
//	GET /api/admission
func (s *Server) handleAdmissionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.tracker.Gate().Snapshot())
}

// requestLogger returns the request-scoped logger, correlated with the active
// span when the request is traced.
func requestLogger(r *http.Request) zerolog.Logger {
	logger := log.WithComponentFromContext(r.Context(), "api")
	if traceID, spanID := middleware.ExtractTraceContext(r); traceID != "" {
		logger = logger.With().
			Str(log.FieldTraceID, traceID).
			Str(log.FieldSpanID, spanID).
			Logger()
	}
	return logger
}
