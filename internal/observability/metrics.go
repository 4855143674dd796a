package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "solar_estimate"

// Metrics holds the Prometheus counters and histograms for the estimate service.
type Metrics struct {
	Estimates        *prometheus.CounterVec // labels: outcome={success,client_error,upstream_error,error}
	EstimateDuration prometheus.Histogram
	RoofArea         prometheus.Histogram
	SystemCapacity   prometheus.Histogram

	// Upstream provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider={nasa_power,pvgis}, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider={nasa_power,pvgis}

	// Estimate event publishing.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
	EventsEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Estimates,
		m.EstimateDuration,
		m.RoofArea,
		m.SystemCapacity,
		m.ProviderRequests,
		m.ProviderDuration,
		m.EventsPublished,
		m.EventsEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_total",
			Help:      "Estimate requests by outcome.",
		}, []string{"outcome"}),
		EstimateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "estimate_duration_seconds",
			Help:      "End-to-end duration of an estimate, including provider calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RoofArea: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "roof_area_square_meters",
			Help:      "Measured roof outline area.",
			Buckets:   []float64{10, 25, 50, 100, 200, 500, 1000, 5000},
		}),
		SystemCapacity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "system_capacity_kw",
			Help:      "Rated capacity of the sized array.",
			Buckets:   []float64{1, 3, 5, 10, 20, 50, 100, 500},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Upstream data provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream data provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Estimate events published to Kafka by outcome.",
		}, []string{"outcome"}),
		EventsEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_enabled",
			Help:      "1 when estimate event publishing is enabled, 0 otherwise.",
		}),
	}
}
