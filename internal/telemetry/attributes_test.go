// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestAdmissionAttributes(t *testing.T) {
	attrs := AdmissionAttributes("latency", "deadline_exceeded", false, 1800*time.Millisecond, 1750*time.Millisecond, 2.5, 3)

	set := attribute.NewSet(attrs...)
	v, ok := set.Value(AdmissionDeadlineKey)
	assert.True(t, ok)
	assert.Equal(t, int64(1800), v.AsInt64())

	v, ok = set.Value(AdmissionAdmitKey)
	assert.True(t, ok)
	assert.False(t, v.AsBool())

	v, ok = set.Value(AdmissionPendingAheadKey)
	assert.True(t, ok)
	assert.Equal(t, 2.5, v.AsFloat64())
}

func TestExecutionAttributes(t *testing.T) {
	set := attribute.NewSet(ExecutionAttributes(0.5, 3*time.Second, 2*time.Second)...)
	v, ok := set.Value(ExecutionNormalizedKey)
	assert.True(t, ok)
	assert.Equal(t, int64(2000), v.AsInt64())
}

func TestErrorAttributes(t *testing.T) {
	set := attribute.NewSet(ErrorAttributes("panic")...)
	v, ok := set.Value(ErrorTypeKey)
	assert.True(t, ok)
	assert.Equal(t, "panic", v.AsString())
}
