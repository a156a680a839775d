package cn

import (
	"sort"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds statistics over the valid raster cells of one zone.
type Summary struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
	CV     float64 `json:"cv"` // StdDev / Mean
	Range  float64 `json:"range"`
	Sum    float64 `json:"sum"`
}

// ZoneStats is the result for one zone. Summary is nil when no valid cell
// centre falls inside the zone.
type ZoneStats struct {
	ZoneID  string   `json:"zone_id"`
	Count   int      `json:"count"`
	Summary *Summary `json:"summary"`
}

// ZonalStats samples r inside each zone.
//
// Zones are reprojected to the raster CRS first. A cell belongs to a zone
// when its centre lies inside the zone geometry; NoData cells are ignored.
// Results follow zone order.
func ZonalStats(r *Raster, zones *ZoneLayer, opts Options) ([]ZoneStats, error) {
	if r == nil || zones == nil {
		return nil, nil
	}
	t, err := transformFor(zones.CRS, r.CRS)
	if err != nil {
		return nil, err
	}

	out := make([]ZoneStats, len(zones.Zones))
	errs := make([]error, len(zones.Zones))
	forEachIndex(len(zones.Zones), opts.workers(), func(i int) {
		z := zones.Zones[i]
		out[i].ZoneID = z.ID
		g, err := transformGeometry(z.Geometry, t, zones.CRS, r.CRS)
		if err != nil {
			errs[i] = err
			return
		}
		values := r.sample(g)
		out[i].Count = len(values)
		out[i].Summary = summarize(values)
	}, nil)

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// sample returns the valid cell values whose centres fall inside g.
func (r *Raster) sample(g geom.Polygonal) []float64 {
	if isEmptyGeometry(g) || !r.Bounds().Intersects(boundsOf(g)) {
		return nil
	}
	table := newEdgeTable(r, []geom.Polygonal{g})
	var values, xs []float64
	for row := range table.rows {
		base := row * r.Cols
		xs = table.spans(row, xs, func(_, c0, c1 int) {
			for _, v := range r.Cells[base+c0 : base+c1] {
				if v != r.NoData {
					values = append(values, v)
				}
			}
		})
	}
	return values
}

// summarize computes unweighted cell statistics. The median is the lower
// median for even counts and the standard deviation is the population one.
func summarize(values []float64) *Summary {
	if len(values) == 0 {
		return nil
	}
	x := append([]float64(nil), values...)
	sort.Float64s(x)

	mean, std := stat.PopMeanStdDev(x, nil)
	s := &Summary{
		Mean:   mean,
		Min:    x[0],
		Max:    x[len(x)-1],
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
		StdDev: std,
		Range:  x[len(x)-1] - x[0],
		Sum:    floats.Sum(x),
	}
	if mean != 0 {
		s.CV = std / mean
	}
	return s
}
