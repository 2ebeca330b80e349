package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the scheduling engine.
type SchedulingMetrics struct {
	reserveTotal        *prometheus.CounterVec
	transitionTotal     *prometheus.CounterVec
	availabilityLatency *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		reserveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "schedule",
			Name:      "reserve_total",
			Help:      "Total booking reservation attempts",
		}, []string{"outcome"}),
		transitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "schedule",
			Name:      "transition_total",
			Help:      "Total booking lifecycle transitions",
		}, []string{"to_status", "outcome"}),
		availabilityLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agenda",
			Subsystem: "schedule",
			Name:      "availability_latency_seconds",
			Help:      "Latency of availability computations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reserveTotal, m.transitionTotal, m.availabilityLatency)
	return m
}

func (m *SchedulingMetrics) ObserveReserve(outcome string) {
	if m == nil {
		return
	}
	m.reserveTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveTransition(toStatus, outcome string) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(toStatus, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveAvailabilityLatency(cache string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityLatency.WithLabelValues(cache).Observe(seconds)
}
