package cn

import (
	"sort"

	"github.com/ctessum/geom"
)

// DissolvedRecord is the union of every matched polygon sharing one CN.
type DissolvedRecord struct {
	CN           float64
	Geometry     geom.Polygonal
	AreaHectares float64 // Sum of member polygon areas
	PolygonCount int     // Number of overlay polygons merged
}

// AreaHectares returns the area of g in hectares.
//
// Projected coordinates are scaled by the CRS linear unit. Geographic
// coordinates use geodesic ring areas on the WGS84 mean sphere.
func AreaHectares(g geom.Polygonal, c CRS) float64 {
	if g == nil {
		return 0
	}
	if c.IsGeographic() {
		return geodesicArea(g) / 10000
	}
	m := c.MetersPerUnit()
	if m <= 0 {
		m = 1
	}
	return g.Area() * m * m / 10000
}

type dissolveGroup struct {
	cn    float64
	geoms []geom.Polygonal
	area  float64
}

// Dissolve merges matched features by CN value.
//
// Unmatched features are dropped. Records are returned in ascending CN
// order with one record per distinct CN. Unions for different CN values run
// concurrently. ErrNoMatchedFeatures is returned when nothing matched.
func Dissolve(assigned *AssignedLayer, opts Options) ([]DissolvedRecord, error) {
	if assigned == nil {
		return nil, ErrNoMatchedFeatures
	}

	byCN := make(map[float64]*dissolveGroup)
	for _, f := range assigned.Features {
		if !f.Matched || isEmptyGeometry(f.Geometry) {
			continue
		}
		g, ok := byCN[f.CN]
		if !ok {
			g = &dissolveGroup{cn: f.CN}
			byCN[f.CN] = g
		}
		g.geoms = append(g.geoms, f.Geometry)
		g.area += AreaHectares(f.Geometry, assigned.CRS)
	}
	if len(byCN) == 0 {
		return nil, ErrNoMatchedFeatures
	}

	groups := make([]*dissolveGroup, 0, len(byCN))
	for _, g := range byCN {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].cn < groups[j].cn })

	records := make([]DissolvedRecord, len(groups))
	forEachIndex(len(groups), opts.workers(), func(i int) {
		g := groups[i]
		records[i] = DissolvedRecord{
			CN:           g.cn,
			Geometry:     unionAll(g.geoms),
			AreaHectares: g.area,
			PolygonCount: len(g.geoms),
		}
	}, nil)

	// Slivers can round to zero area; such a CN has no footprint.
	out := records[:0]
	for _, r := range records {
		if r.AreaHectares > 0 {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMatchedFeatures
	}
	return out, nil
}

// unionAll merges geometries pairwise until one remains. Merging neighbours
// in rounds keeps intermediate polygons small.
func unionAll(geoms []geom.Polygonal) geom.Polygonal {
	if len(geoms) == 0 {
		return nil
	}
	level := append([]geom.Polygonal(nil), geoms...)
	for len(level) > 1 {
		next := make([]geom.Polygonal, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, union(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}

func union(a, b geom.Polygonal) geom.Polygonal {
	switch {
	case isEmptyGeometry(a):
		return b
	case isEmptyGeometry(b):
		return a
	}
	if u := a.Union(b); !isEmptyGeometry(u) {
		return u
	}
	// Clipping failed to produce output; keep both parts unmerged.
	mp := make(geom.MultiPolygon, 0, len(a.Polygons())+len(b.Polygons()))
	mp = append(mp, a.Polygons()...)
	mp = append(mp, b.Polygons()...)
	return mp
}
