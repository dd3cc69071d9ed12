// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	return getCounterValue(t, counterVec.WithLabelValues(labels...))
}

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, gauge.Write(metric))
	return metric.GetGauge().GetValue()
}

func TestRecordAdmit_IncrementsCounter(t *testing.T) {
	initial := getCounterVecValue(t, AdmissionAdmitTotal, "latency")

	RecordAdmit("latency", 0.75)

	assert.Equal(t, initial+1, getCounterVecValue(t, AdmissionAdmitTotal, "latency"))
}

func TestRecordReject_IncrementsCounter(t *testing.T) {
	initial := getCounterVecValue(t, AdmissionRejectTotal, "queue_length", "queue_full")

	RecordReject("queue_length", "queue_full", 0)

	assert.Equal(t, initial+1, getCounterVecValue(t, AdmissionRejectTotal, "queue_length", "queue_full"))
}

func TestGauges(t *testing.T) {
	SetActive(3)
	assert.Equal(t, 3.0, GetActive())

	SetEstimate(0.5)
	assert.Equal(t, 0.5, getGaugeValue(t, Estimate))

	IncWorkerBusy()
	before := getGaugeValue(t, workerPoolBusy)
	DecWorkerBusy()
	assert.Equal(t, before-1, getGaugeValue(t, workerPoolBusy))
}

func TestRecordInvariantViolation(t *testing.T) {
	initial := getCounterVecValue(t, InvariantViolationTotal, "occupancy_negative")
	RecordInvariantViolation("occupancy_negative")
	assert.Equal(t, initial+1, getCounterVecValue(t, InvariantViolationTotal, "occupancy_negative"))
}
