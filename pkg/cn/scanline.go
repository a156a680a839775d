package cn

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// edge is a non-horizontal polygon edge in CRS coordinates.
type edge struct {
	x0, y0 float64 // start point
	x1, y1 float64 // end point
	dxdy   float64 // (x1-x0)/(y1-y0), precomputed for x-intercept calculation
}

// crossing returns the x where the horizontal line at y meets e. The lower
// end point is included and the upper one excluded, so a vertex shared by
// two edges is counted once.
func (e edge) crossing(y float64) (float64, bool) {
	if (e.y0 <= y && y < e.y1) || (e.y1 <= y && y < e.y0) {
		return e.x0 + (y-e.y0)*e.dxdy, true
	}
	return 0, false
}

// polygonEdges returns every non-horizontal edge of every ring of g. Open
// rings are closed implicitly.
func polygonEdges(g geom.Polygonal) []edge {
	if g == nil {
		return nil
	}
	var edges []edge
	for _, poly := range g.Polygons() {
		for _, ring := range poly {
			if len(ring) < 3 {
				continue
			}
			for i := range ring {
				a, b := ring[i], ring[(i+1)%len(ring)]
				if a.Y == b.Y {
					continue
				}
				edges = append(edges, edge{
					x0: a.X, y0: a.Y,
					x1: b.X, y1: b.Y,
					dxdy: (b.X - a.X) / (b.Y - a.Y),
				})
			}
		}
	}
	return edges
}

type edgeRef struct {
	shape int32
	edge  int32
}

// edgeTable buckets the edges of several shapes by the raster rows whose
// centre lines they may cross. Within a row, entries keep shape order.
// It is read-only once built and safe to share between row workers.
type edgeTable struct {
	r     *Raster
	edges [][]edge
	rows  [][]edgeRef
}

func newEdgeTable(r *Raster, shapes []geom.Polygonal) *edgeTable {
	t := &edgeTable{
		r:     r,
		edges: make([][]edge, len(shapes)),
		rows:  make([][]edgeRef, r.Rows),
	}
	for k, g := range shapes {
		t.edges[k] = polygonEdges(g)
		for i, e := range t.edges[k] {
			r0, r1 := r.rowRange(math.Min(e.y0, e.y1), math.Max(e.y0, e.y1))
			for row := r0; row <= r1; row++ {
				t.rows[row] = append(t.rows[row], edgeRef{shape: int32(k), edge: int32(i)})
			}
		}
	}
	return t
}

// spans calls fn for each run of columns [c0, c1) in row whose cell centres
// lie inside shape k under the even-odd rule. Shapes are visited in order.
func (t *edgeTable) spans(row int, xs []float64, fn func(k, c0, c1 int)) []float64 {
	_, y := t.r.CellCenter(0, row)
	refs := t.rows[row]
	for i := 0; i < len(refs); {
		k := refs[i].shape
		xs = xs[:0]
		for ; i < len(refs) && refs[i].shape == k; i++ {
			if x, ok := t.edges[k][refs[i].edge].crossing(y); ok {
				xs = append(xs, x)
			}
		}
		sort.Float64s(xs)
		for j := 0; j+1 < len(xs); j += 2 {
			c0, c1 := t.r.colSpan(xs[j], xs[j+1])
			if c0 < c1 {
				fn(int(k), c0, c1)
			}
		}
	}
	return xs
}

// rowRange returns the rows whose centre lines may fall in [minY, maxY],
// widened by one row so rounding never drops an edge. crossing makes the
// exact test.
func (r *Raster) rowRange(minY, maxY float64) (r0, r1 int) {
	r0 = int(math.Floor((r.MaxY-maxY)/r.CellHeight-0.5)) - 1
	r1 = int(math.Floor((r.MaxY-minY)/r.CellHeight-0.5)) + 1
	return clampInt(r0, 0, r.Rows-1), clampInt(r1, 0, r.Rows-1)
}

// colSpan returns the half-open column range whose centres lie in [xa, xb).
func (r *Raster) colSpan(xa, xb float64) (c0, c1 int) {
	c0 = int(math.Ceil((xa-r.MinX)/r.CellWidth - 0.5))
	c1 = int(math.Ceil((xb-r.MinX)/r.CellWidth - 0.5))
	return clampInt(c0, 0, r.Cols), clampInt(c1, 0, r.Cols)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
