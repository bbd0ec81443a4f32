package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for intake conversations.
type IntakeMetrics struct {
	turnsTotal     *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	callsCompleted *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total processed caller turns",
		}, []string{"step", "outcome"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "conversation",
			Name:      "retries_total",
			Help:      "Total re-prompts issued per step",
		}, []string{"step"}),
		callsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "conversation",
			Name:      "calls_total",
			Help:      "Total terminated calls by final status",
		}, []string{"status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intake",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of a single conversational turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.retriesTotal, m.callsCompleted, m.turnLatency)
	return m
}

func (m *IntakeMetrics) ObserveTurn(step, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(step, outcome).Inc()
}

func (m *IntakeMetrics) ObserveRetry(step string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(step).Inc()
}

func (m *IntakeMetrics) ObserveCallEnd(status string) {
	if m == nil {
		return
	}
	m.callsCompleted.WithLabelValues(status).Inc()
}

func (m *IntakeMetrics) ObserveTurnLatency(step string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(step).Observe(seconds)
}
