package cn

import (
	"fmt"

	"github.com/ctessum/geom"
)

// OverlayFeature is the intersection of one soil polygon with one land use
// polygon, carrying both source records.
type OverlayFeature struct {
	Geometry geom.Polygonal
	Soil     SoilFeature
	LandUse  LandUseFeature
}

// Attributes merges the soil and land use attributes. Names present in both
// are qualified as "soil.<name>" and "landuse.<name>".
func (f OverlayFeature) Attributes() map[string]any {
	out := make(map[string]any, len(f.Soil.Attributes)+len(f.LandUse.Attributes))
	for k, v := range f.Soil.Attributes {
		if _, dup := f.LandUse.Attributes[k]; dup {
			out["soil."+k] = v
			continue
		}
		out[k] = v
	}
	for k, v := range f.LandUse.Attributes {
		if _, dup := f.Soil.Attributes[k]; dup {
			out["landuse."+k] = v
			continue
		}
		out[k] = v
	}
	return out
}

// OverlayLayer holds every non-empty soil × land use intersection.
type OverlayLayer struct {
	CRS      CRS
	Features []OverlayFeature
}

// Intersect overlays soil with land use.
//
// Land use polygons are indexed by bounding box; each soil polygon is
// clipped against its candidates. Empty and zero-area results are dropped.
// Features are ordered by soil index, then land use index, regardless of
// opts.Workers.
func Intersect(soil *SoilLayer, landuse *LandUseLayer, opts Options) (*OverlayLayer, error) {
	if soil == nil || len(soil.Features) == 0 {
		return nil, &OverlayError{Layer: "soil", Reason: "no features"}
	}
	if landuse == nil || len(landuse.Features) == 0 {
		return nil, &OverlayError{Layer: "landuse", Reason: "no features"}
	}
	if !soil.CRS.Equal(landuse.CRS) {
		return nil, &OverlayError{
			Reason: fmt.Sprintf("CRS mismatch: soil %s, landuse %s", soil.CRS, landuse.CRS),
		}
	}

	soilBounds, soilValid := validExtents(len(soil.Features), func(i int) geom.Polygonal {
		return soil.Features[i].Geometry
	})
	if soilValid == 0 {
		return nil, &OverlayError{Layer: "soil", Reason: "no valid geometries"}
	}
	luBounds, luValid := validExtents(len(landuse.Features), func(i int) geom.Polygonal {
		return landuse.Features[i].Geometry
	})
	if luValid == 0 {
		return nil, &OverlayError{Layer: "landuse", Reason: "no valid geometries"}
	}

	idx := newFeatureIndex(luBounds)

	// One output slot per soil feature keeps the result order independent
	// of scheduling.
	results := make([][]OverlayFeature, len(soil.Features))
	forEachIndex(len(soil.Features), opts.workers(), func(i int) {
		if soilBounds[i].IsEmpty() {
			return
		}
		s := soil.Features[i]
		for _, j := range idx.Query(soilBounds[i]) {
			lu := landuse.Features[j]
			inter := s.Geometry.Intersection(lu.Geometry)
			if isEmptyGeometry(inter) {
				continue
			}
			results[i] = append(results[i], OverlayFeature{
				Geometry: inter,
				Soil:     s,
				LandUse:  lu,
			})
		}
	}, opts.Progress)

	n := 0
	for _, r := range results {
		n += len(r)
	}
	out := &OverlayLayer{CRS: soil.CRS, Features: make([]OverlayFeature, 0, n)}
	for _, r := range results {
		out.Features = append(out.Features, r...)
	}
	return out, nil
}

// validExtents returns the bounds of each geometry, empty for unusable ones,
// and the number of usable geometries.
func validExtents(n int, geometry func(i int) geom.Polygonal) ([]Bounds, int) {
	extents := make([]Bounds, n)
	valid := 0
	for i := 0; i < n; i++ {
		g := geometry(i)
		if isEmptyGeometry(g) {
			extents[i] = emptyBounds()
			continue
		}
		extents[i] = boundsOf(g)
		valid++
	}
	return extents, valid
}
