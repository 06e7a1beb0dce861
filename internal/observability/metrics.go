package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// zonal advisory pipeline.
type Metrics struct {
	TriggersConsumed prometheus.Counter
	TriggersRejected prometheus.Counter
	ConsumerRunning  prometheus.Gauge

	// Per-family run outcomes. labels: family={high_hfi,fuel_type_area,elevation,tpi}
	RunsCompleted  *prometheus.CounterVec
	RunsSkipped    *prometheus.CounterVec // already-computed guard hits
	RunsFailed     *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	ZonesProcessed *prometheus.CounterVec
	ZonesSkipped   *prometheus.CounterVec // zones outside raster coverage

	// Raster source metrics.
	RasterLoads        *prometheus.CounterVec // labels: outcome={success,not_found,error}
	RasterLoadDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TriggersConsumed,
		m.TriggersRejected,
		m.ConsumerRunning,
		m.RunsCompleted,
		m.RunsSkipped,
		m.RunsFailed,
		m.RunDuration,
		m.ZonesProcessed,
		m.ZonesSkipped,
		m.RasterLoads,
		m.RasterLoadDuration,
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
		TriggersConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfms_advisory",
			Name:      "triggers_consumed_total",
			Help:      "Total run-trigger messages read from the trigger topic.",
		}),
		TriggersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sfms_advisory",
			Name:      "triggers_rejected_total",
			Help:      "Trigger messages dropped as malformed.",
		}),
		ConsumerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sfms_advisory",
			Name:      "consumer_running",
			Help:      "1 when the trigger consumer is active, 0 when shut down.",
		}),
		RunsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfms_advisory",
			Name:      "runs_completed_total",
			Help:      "Statistic-family computations persisted successfully.",
		}, []string{"family"}),
		RunsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfms_advisory",
			Name:      "runs_skipped_total",
			Help:      "Computations skipped because rows already exist for the run identity.",
		}, []string{"family"}),
		RunsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfms_advisory",
			Name:      "runs_failed_total",
			Help:      "Statistic-family computations that aborted.",
		}, []string{"family"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sfms_advisory",
			Name:      "run_duration_seconds",
			Help:      "Duration of one statistic-family computation.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"family"}),
		ZonesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfms_advisory",
			Name:      "zones_processed_total",
			Help:      "Fire zone units with statistics persisted.",
		}, []string{"family"}),
		ZonesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfms_advisory",
			Name:      "zones_skipped_total",
			Help:      "Fire zone units skipped because the raster does not cover them.",
		}, []string{"family"}),
		RasterLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfms_advisory",
			Name:      "raster_loads_total",
			Help:      "Raster fetches from object storage by outcome.",
		}, []string{"outcome"}),
		RasterLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sfms_advisory",
			Name:      "raster_load_duration_seconds",
			Help:      "Object storage raster fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}
