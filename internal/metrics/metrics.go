// Package metrics provides Prometheus metrics for the surebet tool.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "surebet_tool"

// Metrics holds all Prometheus collectors used by the ingestion pipeline
// and the detection engine.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion
	IngestionCycles   *prometheus.CounterVec
	EventsIngested    *prometheus.CounterVec
	OutcomesIngested  *prometheus.CounterVec
	OutcomesRejected  *prometheus.CounterVec
	SourceFetchErrors *prometheus.CounterVec
	IngestionDuration *prometheus.HistogramVec
	StoreEvents       prometheus.Gauge
	StaleEventsPruned prometheus.Counter

	// Detection
	DetectionPasses   prometheus.Counter
	DetectionDuration prometheus.Histogram
	SurebetsDetected  prometheus.Gauge
	BestProfitPct     prometheus.Gauge

	// Publishing
	PublishErrors *prometheus.CounterVec

	// API
	HTTPRequests *prometheus.CounterVec
	StakePlans   prometheus.Counter
}

// New creates a Metrics instance with its own registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		IngestionCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_cycles_total",
			Help:      "Total ingestion cycles by status",
		}, []string{"status"}),

		EventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_ingested_total",
			Help:      "Events upserted into the snapshot store by source",
		}, []string{"source"}),

		OutcomesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_ingested_total",
			Help:      "Outcomes accepted by the normalizer by source",
		}, []string{"source"}),

		OutcomesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_rejected_total",
			Help:      "Outcomes rejected during normalization by source and reason",
		}, []string{"source", "reason"}),

		SourceFetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_errors_total",
			Help:      "Failed source fetches by source",
		}, []string{"source"}),

		IngestionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_duration_seconds",
			Help:      "Duration of source fetch and normalize by source",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),

		StoreEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_events",
			Help:      "Events currently held in the snapshot store",
		}),

		StaleEventsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_events_pruned_total",
			Help:      "Events dropped by TTL pruning",
		}),

		DetectionPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detection_passes_total",
			Help:      "Detection passes executed",
		}),

		DetectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Duration of a full detection pass",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		SurebetsDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "surebets_detected",
			Help:      "Surebets found in the most recent detection pass",
		}),

		BestProfitPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_profit_percentage",
			Help:      "Highest profit percentage in the most recent pass",
		}),

		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Publisher failures by publisher name",
		}, []string{"publisher"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by endpoint and status code",
		}, []string{"endpoint", "status"}),

		StakePlans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stake_plans_total",
			Help:      "Stake plans computed via the API",
		}),
	}

	registry.MustRegister(
		m.IngestionCycles,
		m.EventsIngested,
		m.OutcomesIngested,
		m.OutcomesRejected,
		m.SourceFetchErrors,
		m.IngestionDuration,
		m.StoreEvents,
		m.StaleEventsPruned,
		m.DetectionPasses,
		m.DetectionDuration,
		m.SurebetsDetected,
		m.BestProfitPct,
		m.PublishErrors,
		m.HTTPRequests,
		m.StakePlans,
	)

	return m
}

// Handler returns the HTTP handler serving this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
