package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/curvenumber/pkg/cn"
)

var _ cn.Recorder = (*Metrics)(nil)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("stage complete", "stage", "overlay", "features", 12)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "stage complete", rec["msg"])
	assert.Equal(t, "overlay", rec["stage"])
	assert.InDelta(t, 12, rec["features"], 0)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug", "text")

	logger.Debug("replacing dual groups", "label", "A/D")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "label=A/D")
}

// gathered returns the first sample of a counter or gauge family.
func gathered(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		require.NotEmpty(t, f.GetMetric())
		m := f.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		if g := m.GetGauge(); g != nil {
			return g.GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.FeaturesProcessed.WithLabelValues("overlay").Add(3)
	m.UnmatchedPairCount.Set(2)

	assert.InDelta(t, 3, gathered(t, reg, "curvenumber_features_processed_total"), 0)
	assert.InDelta(t, 2, gathered(t, reg, "curvenumber_unmatched_pairs"), 0)
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	regA := prometheus.NewRegistry()
	regA.MustRegister(a.Warnings)
	regB := prometheus.NewRegistry()
	regB.MustRegister(b.Warnings)

	a.Warnings.WithLabelValues("invalid_hydro_group").Inc()
	b.Warnings.WithLabelValues("invalid_hydro_group")

	assert.InDelta(t, 1, gathered(t, regA, "curvenumber_warnings_total"), 0)
	assert.InDelta(t, 0, gathered(t, regB, "curvenumber_warnings_total"), 0)
}

func TestMetrics_Recorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.StageCompleted("dissolve", 2*time.Second, 4)
	m.Warning("empty_geometry")
	m.CNValues(7)
	m.RasterCells(90, 10)
	m.RunCompleted(errors.New("boom"))

	assert.InDelta(t, 4, gathered(t, reg, "curvenumber_features_processed_total"), 0)
	assert.InDelta(t, 1, gathered(t, reg, "curvenumber_warnings_total"), 0)
	assert.InDelta(t, 7, gathered(t, reg, "curvenumber_cn_values"), 0)
	assert.InDelta(t, 1, gathered(t, reg, "curvenumber_runs_total"), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "curvenumber_raster_cells" {
			continue
		}
		require.Len(t, f.GetMetric(), 2)
		for _, metric := range f.GetMetric() {
			want := 90.0
			if metric.GetLabel()[0].GetValue() == "nodata" {
				want = 10
			}
			assert.InDelta(t, want, metric.GetGauge().GetValue(), 0)
		}
	}
}
