package cn

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// minRectLength keeps degenerate (zero-width or zero-height) bounds
// insertable; rtreego rejects zero lengths.
const minRectLength = 1e-9

// featureIndex provides bounding-box queries over a set of polygons.
//
// Entries store only the feature position and its bounds. Candidates from a
// query still need an exact geometry test.
type featureIndex struct {
	entries []indexEntry
	rtree   *rtreego.Rtree
}

// indexEntry is one indexed feature.
type indexEntry struct {
	Index  int    // Position in the indexed slice
	Extent Bounds // Feature bounding box
}

// Bounds method for rtreego.Spatial interface.
func (e indexEntry) Bounds() rtreego.Rect {
	return toRect(e.Extent)
}

func toRect(b Bounds) rtreego.Rect {
	point := rtreego.Point{b.MinX, b.MinY}
	lengths := []float64{
		max(b.Width(), minRectLength),
		max(b.Height(), minRectLength),
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// newFeatureIndex indexes every non-empty bounds in extents. Entry i refers
// to extents[i].
func newFeatureIndex(extents []Bounds) *featureIndex {
	// Create R-tree (2D, min=25 children, max=50 children)
	rtree := rtreego.NewTree(2, 25, 50)
	entries := make([]indexEntry, 0, len(extents))

	for i, b := range extents {
		if b.IsEmpty() {
			continue
		}
		e := indexEntry{Index: i, Extent: b}
		entries = append(entries, e)
		rtree.Insert(e)
	}

	return &featureIndex{entries: entries, rtree: rtree}
}

// Query returns the indices of features whose bounds intersect b, in
// ascending order.
func (idx *featureIndex) Query(b Bounds) []int {
	if b.IsEmpty() || len(idx.entries) == 0 {
		return nil
	}

	spatials := idx.rtree.SearchIntersect(toRect(b))
	out := make([]int, 0, len(spatials))
	for _, s := range spatials {
		e := s.(indexEntry)
		// The rectangle padding can admit neighbours that only touch.
		if !b.Intersects(e.Extent) {
			continue
		}
		out = append(out, e.Index)
	}
	sort.Ints(out)
	return out
}
