package cn

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GlobalStats summarizes a dissolved record set. Every statistic other
// than Count and UniqueValues weights each CN by its area, as if each
// hectare contributed one sample.
//
// Percentiles use the weighted nearest-rank definition: the smallest CN
// whose cumulative area share is at least p. No interpolation is done, so
// every percentile is a CN that occurs in the data.
type GlobalStats struct {
	Count             int     `json:"count"`         // Source polygons merged into the records
	UniqueValues      int     `json:"unique_values"` // Distinct CN values
	TotalAreaHectares float64 `json:"total_area_ha"`
	WeightedMean      float64 `json:"weighted_mean"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Median            float64 `json:"median"`
	StdDev            float64 `json:"std"`
	P10               float64 `json:"percentile_10"`
	P25               float64 `json:"percentile_25"`
	P50               float64 `json:"percentile_50"`
	P75               float64 `json:"percentile_75"`
	P90               float64 `json:"percentile_90"`
}

// weightedSample returns CN values sorted ascending with their areas.
// Records without positive area carry no weight and are skipped.
func weightedSample(records []DissolvedRecord) (cn, area []float64, polygons int) {
	sorted := make([]DissolvedRecord, 0, len(records))
	for _, r := range records {
		if math.IsNaN(r.CN) || !(r.AreaHectares > 0) {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CN < sorted[j].CN })

	cn = make([]float64, len(sorted))
	area = make([]float64, len(sorted))
	for i, r := range sorted {
		cn[i] = r.CN
		area[i] = r.AreaHectares
		polygons += max(r.PolygonCount, 1)
	}
	return cn, area, polygons
}

// ComputeGlobalStats computes area-weighted statistics over records. An
// empty or zero-area input yields the zero value.
func ComputeGlobalStats(records []DissolvedRecord) GlobalStats {
	cn, area, polygons := weightedSample(records)
	if len(cn) == 0 {
		return GlobalStats{}
	}

	mean, std := stat.PopMeanStdDev(cn, area)
	q := func(p float64) float64 {
		return stat.Quantile(p, stat.Empirical, cn, area)
	}

	unique := 1
	for i := 1; i < len(cn); i++ {
		if cn[i] != cn[i-1] {
			unique++
		}
	}

	return GlobalStats{
		Count:             polygons,
		UniqueValues:      unique,
		TotalAreaHectares: floats.Sum(area),
		WeightedMean:      mean,
		Min:               cn[0],
		Max:               cn[len(cn)-1],
		Median:            q(0.5),
		StdDev:            std,
		P10:               q(0.10),
		P25:               q(0.25),
		P50:               q(0.50),
		P75:               q(0.75),
		P90:               q(0.90),
	}
}

// DistributionRow is the share of total area held by one CN value.
type DistributionRow struct {
	CN                float64 `json:"cn"`
	AreaHectares      float64 `json:"area_ha"`
	PolygonCount      int     `json:"polygon_count"`
	AreaPercent       float64 `json:"area_percent"`
	CumulativePercent float64 `json:"cumulative_percent"`
	Class             string  `json:"runoff_class"`
}

// Distribution tabulates area per CN in ascending CN order. Records with
// the same CN are combined.
func Distribution(records []DissolvedRecord) []DistributionRow {
	byCN := make(map[float64]*DistributionRow)
	var order []float64
	for _, r := range records {
		if math.IsNaN(r.CN) || !(r.AreaHectares > 0) {
			continue
		}
		row, ok := byCN[r.CN]
		if !ok {
			row = &DistributionRow{CN: r.CN, Class: ClassifyRunoff(r.CN).String()}
			byCN[r.CN] = row
			order = append(order, r.CN)
		}
		row.AreaHectares += r.AreaHectares
		row.PolygonCount += r.PolygonCount
	}
	sort.Float64s(order)

	areas := make([]float64, len(order))
	for i, v := range order {
		areas[i] = byCN[v].AreaHectares
	}
	total := floats.Sum(areas)

	out := make([]DistributionRow, len(order))
	cum := 0.0
	for i, v := range order {
		row := *byCN[v]
		row.AreaPercent = row.AreaHectares / total * 100
		cum += row.AreaPercent
		row.CumulativePercent = cum
		out[i] = row
	}
	return out
}

// RunoffClass is a qualitative runoff potential band.
type RunoffClass int

const (
	RunoffLow      RunoffClass = iota // CN < 40
	RunoffModerate                    // 40 <= CN < 60
	RunoffHigh                        // 60 <= CN < 80
	RunoffVeryHigh                    // CN >= 80
)

// ClassifyRunoff returns the runoff potential band for a curve number.
func ClassifyRunoff(cn float64) RunoffClass {
	switch {
	case cn < 40:
		return RunoffLow
	case cn < 60:
		return RunoffModerate
	case cn < 80:
		return RunoffHigh
	default:
		return RunoffVeryHigh
	}
}

func (c RunoffClass) String() string {
	switch c {
	case RunoffLow:
		return "Low Runoff Potential"
	case RunoffModerate:
		return "Moderate Runoff Potential"
	case RunoffHigh:
		return "High Runoff Potential"
	default:
		return "Very High Runoff Potential"
	}
}
