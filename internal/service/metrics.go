package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the orchestration counters and gauges registered on one
// Prometheus registry.
type Metrics struct {
	SweepsTotal      prometheus.Counter
	SweepErrorsTotal prometheus.Counter
	SweepDuration    prometheus.Histogram
	PlaysClosedTotal *prometheus.CounterVec
	RepairsTotal     prometheus.Counter
	HeartbeatAge     prometheus.Gauge
	Goroutines       prometheus.Gauge
	MemoryMB         prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SweepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "orchestrator_sweeps_total",
			Help: "Completed orchestration sweeps.",
		}),
		SweepErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "orchestrator_sweep_errors_total",
			Help: "Per-play errors captured during sweeps.",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "orchestrator_sweep_duration_seconds",
			Help:    "Duration of a full sweep over active plays.",
			Buckets: prometheus.DefBuckets,
		}),
		PlaysClosedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plays_closed_total",
			Help: "Plays closed, labelled by close type.",
		}, []string{"close_type"}),
		RepairsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "record_repairs_total",
			Help: "Play records structurally repaired.",
		}),
		HeartbeatAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "orchestrator_heartbeat_age_seconds",
			Help: "Seconds since the sweep loop last beat.",
		}),
		Goroutines: factory.NewGauge(prometheus.GaugeOpts{
			Name: "process_goroutines",
			Help: "Current goroutine count.",
		}),
		MemoryMB: factory.NewGauge(prometheus.GaugeOpts{
			Name: "process_memory_mb",
			Help: "Current heap allocation in megabytes.",
		}),
	}
}
