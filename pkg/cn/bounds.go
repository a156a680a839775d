package cn

import (
	"math"

	"github.com/ctessum/geom"
)

// Bounds is an axis-aligned bounding box in layer CRS units.
type Bounds struct {
	MinX float64 // Western edge
	MinY float64 // Southern edge
	MaxX float64 // Eastern edge
	MaxY float64 // Northern edge
}

// emptyBounds returns inverted bounds that any Union replaces.
func emptyBounds() Bounds {
	return Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// IsEmpty returns true if the bounds enclose no area and no point.
func (b Bounds) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Width returns the east-west extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the north-south extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Contains returns true if the point (x, y) is within the bounds.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY
}

// Intersects returns true if the given bounds intersects with this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxX < b.MinX ||
		other.MinX > b.MaxX ||
		other.MaxY < b.MinY ||
		other.MinY > b.MaxY)
}

// Union returns the smallest bounds containing both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return Bounds{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
	}
}

// boundsOf calculates the bounding box of a polygonal geometry.
func boundsOf(g geom.Polygonal) Bounds {
	if g == nil {
		return emptyBounds()
	}
	gb := g.Bounds()
	if gb == nil {
		return emptyBounds()
	}
	return Bounds{MinX: gb.Min.X, MinY: gb.Min.Y, MaxX: gb.Max.X, MaxY: gb.Max.Y}
}
