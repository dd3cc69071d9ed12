// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/admitd/internal/control/http/problem"
	"github.com/ManuGH/admitd/internal/log"
)

// Problem codes of the API surface.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInvalidDeadline = "INVALID_DEADLINE"
	CodeWorkFailed      = "WORK_FAILED"
	CodeUnavailable     = "UNAVAILABLE"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).Error().Err(err).
			Str(log.FieldEvent, "api.encode_error").
			Msg("failed to encode response")
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string) {
	problem.Write(w, r, status, problemType, title, code, detail, nil)
}
