package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the prediction service.
type Metrics struct {
	// Prediction metrics.
	Predictions        *prometheus.CounterVec   // labels: mode={grid,location,dataset}, label
	PredictionErrors   *prometheus.CounterVec   // labels: mode, kind={validation,unavailable,internal}
	PredictionDuration *prometheus.HistogramVec // labels: mode
	BatchRows          prometheus.Histogram

	// Grid index and dataset metrics.
	GridLookups    *prometheus.CounterVec // labels: outcome={found,miss,error}
	GridCache      *prometheus.CounterVec // labels: result={hit,miss}
	DatasetMatches *prometheus.CounterVec // labels: match={exact,fallback}

	// ArtifactLoaded is 1 per artifact that loaded at startup.
	ArtifactLoaded *prometheus.GaugeVec // labels: artifact

	// Prediction event publisher metrics.
	EventsPublished       prometheus.Counter
	EventsDropped         prometheus.Counter
	EventPublishErrors    prometheus.Counter
	EventBatchSize        prometheus.Histogram
	EventPublisherRunning prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Classified feature vectors by request mode and predicted label.",
		}, []string{"mode", "label"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed prediction requests by mode and error kind.",
		}, []string{"mode", "kind"}),
		PredictionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time to resolve features and classify one request.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"mode"}),
		BatchRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_rows",
			Help:      "Number of feature vectors per direct-mode request.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		GridLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_lookups_total",
			Help:      "Point-in-grid lookups by outcome.",
		}, []string{"outcome"}),
		GridCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_cache_total",
			Help:      "Grid lookup cache results.",
		}, []string{"result"}),
		DatasetMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_matches_total",
			Help:      "Historical rows resolved by match kind.",
		}, []string{"match"}),
		ArtifactLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_loaded",
			Help:      "1 when the trained artifact loaded at startup, 0 otherwise.",
		}, []string{"artifact"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Prediction events written to Kafka.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Prediction events dropped because the publish buffer was full.",
		}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Failed Kafka batch writes.",
		}),
		EventBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_batch_size",
			Help:      "Number of prediction events per Kafka write.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		EventPublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_publisher_running",
			Help:      "1 when the prediction event publisher is active, 0 when shut down.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Predictions,
		m.PredictionErrors,
		m.PredictionDuration,
		m.BatchRows,
		m.GridLookups,
		m.GridCache,
		m.DatasetMatches,
		m.ArtifactLoaded,
		m.EventsPublished,
		m.EventsDropped,
		m.EventPublishErrors,
		m.EventBatchSize,
		m.EventPublisherRunning,
	}
}
