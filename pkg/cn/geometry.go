package cn

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// isEmptyGeometry reports whether g has no polygons or no area.
func isEmptyGeometry(g geom.Polygonal) bool {
	if g == nil {
		return true
	}
	polys := g.Polygons()
	if len(polys) == 0 {
		return true
	}
	a := g.Area()
	return math.IsNaN(a) || a <= 0
}

// reproject transforms g with t and checks the result is still polygonal.
func reproject(g geom.Polygonal, t proj.Transformer) (geom.Polygonal, error) {
	if g == nil {
		return nil, nil
	}
	out, err := g.Transform(t)
	if err != nil {
		return nil, err
	}
	p, ok := out.(geom.Polygonal)
	if !ok {
		return nil, fmt.Errorf("transform produced %T, want polygonal geometry", out)
	}
	return p, nil
}

// ensureRingClosure ensures a ring is closed (first coordinate == last).
func ensureRingClosure(r orb.Ring) orb.Ring {
	if len(r) < 3 {
		return r // Not enough points for a ring
	}
	if r[0] == r[len(r)-1] {
		return r
	}
	closed := make(orb.Ring, len(r)+1)
	copy(closed, r)
	closed[len(r)] = r[0]
	return closed
}

func toOrbRing(p geom.Path) orb.Ring {
	r := make(orb.Ring, len(p))
	for i, pt := range p {
		r[i] = orb.Point{pt.X, pt.Y}
	}
	return ensureRingClosure(r)
}

// toOrbMultiPolygon converts g keeping every ring of a polygon together.
// Ring order inside a polygon is not guaranteed to be outer-first.
func toOrbMultiPolygon(g geom.Polygonal) orb.MultiPolygon {
	if g == nil {
		return nil
	}
	polys := g.Polygons()
	mp := make(orb.MultiPolygon, 0, len(polys))
	for _, poly := range polys {
		op := make(orb.Polygon, 0, len(poly))
		for _, path := range poly {
			if len(path) < 3 {
				continue
			}
			op = append(op, toOrbRing(path))
		}
		if len(op) > 0 {
			mp = append(mp, op)
		}
	}
	return mp
}

// geodesicArea returns the area of g in square metres, treating coordinates
// as longitude/latitude degrees. Rings nested an odd number of times inside
// other rings of the same polygon are holes.
func geodesicArea(g geom.Polygonal) float64 {
	total := 0.0
	for _, poly := range toOrbMultiPolygon(g) {
		for i, ring := range poly {
			depth := 0
			for j, other := range poly {
				if i != j && planar.RingContains(other, ring[0]) {
					depth++
				}
			}
			a := geo.Area(ring)
			if depth%2 == 0 {
				total += a
			} else {
				total -= a
			}
		}
	}
	return math.Max(total, 0)
}
