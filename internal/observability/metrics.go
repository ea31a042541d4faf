package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the map service.
type Metrics struct {
	MarkersLoaded  prometheus.Counter
	FeaturesBuilt  prometheus.Counter
	RecordsSkipped prometheus.Counter
	LoadErrors     *prometheus.CounterVec // labels: kind={fetch,parse,other}
	LoadDuration   prometheus.Histogram
	Layers         prometheus.Gauge
	ViewFeatures   prometheus.Gauge
	ViewStale      prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Publishing metrics.
	LayersPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.MarkersLoaded,
		m.FeaturesBuilt,
		m.RecordsSkipped,
		m.LoadErrors,
		m.LoadDuration,
		m.Layers,
		m.ViewFeatures,
		m.ViewStale,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.LayersPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MarkersLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailmap",
			Name:      "markers_loaded_total",
			Help:      "Total marker records read from the source document.",
		}),
		FeaturesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailmap",
			Name:      "features_built_total",
			Help:      "Total GeoJSON features produced from marker records.",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailmap",
			Name:      "records_skipped_total",
			Help:      "Total marker records dropped because of invalid data.",
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailmap",
			Name:      "load_errors_total",
			Help:      "Failed load cycles by error kind.",
		}, []string{"kind"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trailmap",
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete fetch-transform-build cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Layers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trailmap",
			Name:      "layers",
			Help:      "Number of marker layers in the current view.",
		}),
		ViewFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trailmap",
			Name:      "view_features",
			Help:      "Number of features in the current view.",
		}),
		ViewStale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trailmap",
			Name:      "view_stale",
			Help:      "1 when the current view was rebuilt from a snapshot, 0 otherwise.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailmap",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailmap",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trailmap",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trailmap",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
		LayersPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailmap",
			Name:      "layers_published_total",
			Help:      "Total layer messages written to the layer topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailmap",
			Name:      "publish_errors_total",
			Help:      "Total failed layer publications.",
		}),
	}
}
