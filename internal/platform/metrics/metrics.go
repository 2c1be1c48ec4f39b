package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector agrupa las métricas del servicio sobre un registry propio
// (así los tests pueden crear varios sin chocar con el registry global).
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	MedicationsCreated     prometheus.Counter
	DosesMaterialized      prometheus.Counter
	MaterializeRollbacks   prometheus.Counter
	MaterializeTruncations prometheus.Counter

	AlarmsPresented   prometheus.Counter
	AlarmDecisions    *prometheus.CounterVec
	AlarmPollErrors   prometheus.Counter
	AlarmSoundFailure prometheus.Counter
	AlarmSessions     prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"method", "route", "status"}),

		MedicationsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "medications_created_total",
			Help:      "Medications created together with their dose events.",
		}),

		DosesMaterialized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "doses_materialized_total",
			Help:      "Dose events persisted by materialization.",
		}),

		MaterializeRollbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "materialize_rollbacks_total",
			Help:      "Medication creations rolled back because the dose batch failed.",
		}),

		MaterializeTruncations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "materialize_truncations_total",
			Help:      "Materializations that hit the dose event cap.",
		}),

		AlarmsPresented: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alarm",
			Name:      "presented_total",
			Help:      "Alarms that entered the active state.",
		}),

		AlarmDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alarm",
			Name:      "decisions_total",
			Help:      "Recorded alarm decisions by outcome.",
		}, []string{"outcome"}),

		AlarmPollErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alarm",
			Name:      "poll_errors_total",
			Help:      "Due-window queries that failed.",
		}),

		AlarmSoundFailure: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alarm",
			Name:      "sound_failures_total",
			Help:      "Alarms shown silently because no sound could be started.",
		}),

		AlarmSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alarm",
			Name:      "sessions",
			Help:      "Alarm delivery loops currently running.",
		}),
	}
}

func (c *Collector) ObserveHTTP(method, route, status string, d time.Duration) {
	c.RequestsTotal.WithLabelValues(method, route, status).Inc()
	c.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry expone el registry (tests con testutil).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
