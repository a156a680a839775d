package cn

import (
	"github.com/ctessum/geom"

	"github.com/beetlebugorg/curvenumber/internal/crs"
)

// utm17 is a metre-based CRS used for planar fixtures.
var utm17 = crs.MustParse("EPSG:32617")

var wgs84 = crs.MustParse("EPSG:4326")

// rect returns a counter-clockwise rectangle.
func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}}
}

func square(x0, y0, size float64) geom.Polygon {
	return rect(x0, y0, x0+size, y0+size)
}

func feature(g geom.Polygonal, attrs map[string]any) Feature {
	return Feature{Geometry: g, Attributes: attrs}
}

// soilFixture has a group B square and an A/D square side by side, each
// 100 m wide.
func soilFixture() *Layer {
	return &Layer{
		Name: "soil",
		CRS:  utm17,
		Features: []Feature{
			feature(square(0, 0, 100), map[string]any{"hydgrpdcd": "B", "mukey": "1"}),
			feature(square(100, 0, 100), map[string]any{"hydgrpdcd": "A/D", "mukey": "2"}),
		},
	}
}

// landUseFixture splits the soil fixture at x=150 into deciduous forest (41)
// and cultivated crops (82).
func landUseFixture() *Layer {
	return &Layer{
		Name: "landuse",
		CRS:  utm17,
		Features: []Feature{
			feature(rect(0, 0, 150, 100), map[string]any{"gridcode": float64(41), "mukey": "lu-1"}),
			feature(rect(150, 0, 200, 100), map[string]any{"gridcode": "82"}),
		},
	}
}

var replaceWithD = GroupReplacementMap{DualAD: GroupD, DualBD: GroupD, DualCD: GroupD}
