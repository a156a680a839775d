package cn

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func TestComputeGlobalStats_AreaWeighted(t *testing.T) {
	records := []DissolvedRecord{
		{CN: 90, AreaHectares: 30, PolygonCount: 4},
		{CN: 70, AreaHectares: 10, PolygonCount: 2},
	}

	got := ComputeGlobalStats(records)

	want := GlobalStats{
		Count:             6,
		UniqueValues:      2,
		TotalAreaHectares: 40,
		WeightedMean:      85, // not the unweighted 80
		Min:               70,
		Max:               90,
		Median:            90,
		StdDev:            math.Sqrt(75),
		P10:               70,
		P25:               70,
		P50:               90,
		P75:               90,
		P90:               90,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("global stats mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeGlobalStats_NearestRankTie(t *testing.T) {
	got := ComputeGlobalStats([]DissolvedRecord{
		{CN: 70, AreaHectares: 20, PolygonCount: 1},
		{CN: 90, AreaHectares: 20, PolygonCount: 1},
	})

	assert.InDelta(t, 80, got.WeightedMean, 1e-9)
	assert.InDelta(t, 70, got.Median, 0, "exactly half the area reaches the lower value")
	assert.InDelta(t, 90, got.P75, 0)
}

func TestComputeGlobalStats_Empty(t *testing.T) {
	assert.Equal(t, GlobalStats{}, ComputeGlobalStats(nil))
	assert.Equal(t, GlobalStats{}, ComputeGlobalStats([]DissolvedRecord{{CN: 70, AreaHectares: 0}}))
}

func TestDistribution(t *testing.T) {
	rows := Distribution([]DissolvedRecord{
		{CN: 85, AreaHectares: 3, PolygonCount: 2},
		{CN: 35, AreaHectares: 1, PolygonCount: 1},
	})

	want := []DistributionRow{
		{CN: 35, AreaHectares: 1, PolygonCount: 1, AreaPercent: 25, CumulativePercent: 25, Class: "Low Runoff Potential"},
		{CN: 85, AreaHectares: 3, PolygonCount: 2, AreaPercent: 75, CumulativePercent: 100, Class: "Very High Runoff Potential"},
	}
	if diff := cmp.Diff(want, rows, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("distribution mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, Distribution(nil))
}

func TestClassifyRunoff(t *testing.T) {
	tests := []struct {
		cn   float64
		want RunoffClass
	}{
		{25, RunoffLow},
		{39.9, RunoffLow},
		{40, RunoffModerate},
		{59.9, RunoffModerate},
		{60, RunoffHigh},
		{79.99, RunoffHigh},
		{80, RunoffVeryHigh},
		{100, RunoffVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyRunoff(tt.cn), "CN %v", tt.cn)
	}
	assert.Equal(t, "High Runoff Potential", RunoffHigh.String())
}
