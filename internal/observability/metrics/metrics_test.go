package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestIntakeMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIntakeMetrics(reg)
	m.ObserveTurn("phone", "invalid")
	m.ObserveRetry("phone")
	m.ObserveCallEnd("completed")
	m.ObserveTurnLatency("phone", 0.5)
}

func TestIntakeMetricsNilSafe(t *testing.T) {
	var m *IntakeMetrics
	m.ObserveTurn("name", "valid")
	m.ObserveRetry("name")
	m.ObserveCallEnd("aborted")
	m.ObserveTurnLatency("name", 0.1)
}
