package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "curvenumber"

// Metrics holds the Prometheus collectors for a curve number run.
type Metrics struct {
	// Stage metrics. labels: stage={preprocess,overlay,assign,dissolve,rasterize,stats,zonal}
	StageDuration     *prometheus.HistogramVec
	FeaturesProcessed *prometheus.CounterVec

	Warnings           *prometheus.CounterVec // labels: kind
	UnmatchedPairCount prometheus.Gauge
	CNValueCount       prometheus.Gauge
	RasterCellCount    *prometheus.GaugeVec   // labels: state={valid,nodata}
	RunsCompleted      *prometheus.CounterVec // labels: outcome={success,error}
}

func newCollectors(help bool) *Metrics {
	h := func(s string) string {
		if help {
			return s
		}
		return ""
	}
	return &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      h("Wall time of each pipeline stage."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		FeaturesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_processed_total",
			Help:      h("Features produced by each pipeline stage."),
		}, []string{"stage"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      h("Non-fatal input conditions by kind."),
		}, []string{"kind"}),
		UnmatchedPairCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unmatched_pairs",
			Help:      h("Distinct land use and soil group combinations missing from the lookup table."),
		}),
		CNValueCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cn_values",
			Help:      h("Distinct curve numbers in the dissolved output."),
		}),
		RasterCellCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "raster_cells",
			Help:      h("Raster cells by state."),
		}, []string{"state"}),
		RunsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      h("Completed pipeline runs by outcome."),
		}, []string{"outcome"}),
	}
}

// NewMetrics creates the run metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newCollectors(true)
	reg.MustRegister(
		m.StageDuration,
		m.FeaturesProcessed,
		m.Warnings,
		m.UnmatchedPairCount,
		m.CNValueCount,
		m.RasterCellCount,
		m.RunsCompleted,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newCollectors(false)
}

// StageCompleted records the duration and output size of one stage.
func (m *Metrics) StageCompleted(stage string, d time.Duration, features int) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.FeaturesProcessed.WithLabelValues(stage).Add(float64(features))
}

func (m *Metrics) Warning(kind string) {
	m.Warnings.WithLabelValues(kind).Inc()
}

func (m *Metrics) UnmatchedPairs(n int) {
	m.UnmatchedPairCount.Set(float64(n))
}

func (m *Metrics) CNValues(n int) {
	m.CNValueCount.Set(float64(n))
}

func (m *Metrics) RasterCells(valid, nodata int) {
	m.RasterCellCount.WithLabelValues("valid").Set(float64(valid))
	m.RasterCellCount.WithLabelValues("nodata").Set(float64(nodata))
}

// RunCompleted counts a finished run by outcome.
func (m *Metrics) RunCompleted(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.RunsCompleted.WithLabelValues(outcome).Inc()
}
