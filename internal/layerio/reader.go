// Package layerio reads polygon layers from shapefiles and GeoJSON and
// writes run outputs.
package layerio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/beetlebugorg/curvenumber/internal/crs"
	"github.com/beetlebugorg/curvenumber/pkg/cn"
)

// ErrNoCRS indicates a shapefile without a .prj sidecar and no override.
var ErrNoCRS = errors.New("layer has no CRS; provide one explicitly")

// ReadLayer reads a polygon layer from a .shp, .geojson or .json file.
//
// crsOverride, if non-empty, replaces the CRS found in the file. Shapefiles
// take their CRS from the sibling .prj; GeoJSON defaults to EPSG:4326.
// For shapefiles only the listed fields are read; GeoJSON keeps every
// property.
func ReadLayer(path, crsOverride string, fields ...string) (*cn.Layer, error) {
	var (
		layer *cn.Layer
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		layer, err = readShapefile(path, crsOverride, fields)
	case ".geojson", ".json":
		layer, err = readGeoJSON(path, crsOverride)
	default:
		return nil, fmt.Errorf("read layer %s: unsupported format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read layer %s: %w", path, err)
	}
	layer.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return layer, nil
}

func readShapefile(path, crsOverride string, fields []string) (*cn.Layer, error) {
	c, err := shapefileCRS(path, crsOverride)
	if err != nil {
		return nil, err
	}

	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	layer := &cn.Layer{CRS: c}
	for row := 0; ; row++ {
		g, values, more := dec.DecodeRowFields(fields...)
		if !more {
			break
		}
		poly, ok := g.(geom.Polygonal)
		if g != nil && !ok {
			return nil, fmt.Errorf("row %d: %T is not a polygon", row, g)
		}
		attrs := make(map[string]any, len(values))
		for k, v := range values {
			attrs[k] = strings.TrimSpace(strings.Trim(v, "\x00"))
		}
		layer.Features = append(layer.Features, cn.Feature{Geometry: poly, Attributes: attrs})
	}
	if err := dec.Error(); err != nil {
		return nil, err
	}
	return layer, nil
}

func shapefileCRS(path, crsOverride string) (crs.CRS, error) {
	if crsOverride != "" {
		return crs.Parse(crsOverride)
	}
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	data, err := os.ReadFile(prj)
	if errors.Is(err, os.ErrNotExist) {
		return crs.CRS{}, ErrNoCRS
	}
	if err != nil {
		return crs.CRS{}, err
	}
	return crs.Parse(string(data))
}

func readGeoJSON(path, crsOverride string) (*cn.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	id := crsOverride
	if id == "" {
		id = namedCRS(fc)
	}
	c, err := crs.Parse(id)
	if err != nil {
		return nil, err
	}

	layer := &cn.Layer{CRS: c, Features: make([]cn.Feature, 0, len(fc.Features))}
	for i, f := range fc.Features {
		var poly geom.Polygonal
		if f.Geometry != nil {
			var ok bool
			poly, ok = fromOrb(f.Geometry)
			if !ok {
				return nil, fmt.Errorf("feature %d: %s is not a polygon", i, f.Geometry.GeoJSONType())
			}
		}
		layer.Features = append(layer.Features, cn.Feature{
			Geometry:   poly,
			Attributes: map[string]any(f.Properties),
		})
	}
	return layer, nil
}

// namedCRS returns the legacy "crs" member name, or EPSG:4326.
//
//	"crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:EPSG::32617"}}
func namedCRS(fc *geojson.FeatureCollection) string {
	member, ok := fc.ExtraMembers["crs"].(map[string]any)
	if !ok {
		return crs.WGS84
	}
	props, ok := member["properties"].(map[string]any)
	if !ok {
		return crs.WGS84
	}
	name, ok := props["name"].(string)
	if !ok || name == "" {
		return crs.WGS84
	}
	if i := strings.LastIndex(name, "EPSG::"); i >= 0 {
		return "EPSG:" + name[i+len("EPSG::"):]
	}
	if strings.HasSuffix(name, "CRS84") {
		return crs.WGS84
	}
	return name
}

// fromOrb converts an orb polygon or multipolygon.
func fromOrb(g orb.Geometry) (geom.Polygonal, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		return fromOrbPolygon(v), true
	case orb.MultiPolygon:
		mp := make(geom.MultiPolygon, 0, len(v))
		for _, p := range v {
			mp = append(mp, fromOrbPolygon(p))
		}
		return mp, true
	default:
		return nil, false
	}
}

func fromOrbPolygon(p orb.Polygon) geom.Polygon {
	out := make(geom.Polygon, 0, len(p))
	for _, ring := range p {
		path := make(geom.Path, len(ring))
		for i, pt := range ring {
			path[i] = geom.Point{X: pt[0], Y: pt[1]}
		}
		out = append(out, path)
	}
	return out
}

// toOrb converts polygonal geometry for GeoJSON output, closing rings.
func toOrb(g geom.Polygonal) orb.MultiPolygon {
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
			ring := make(orb.Ring, 0, len(path)+1)
			for _, pt := range path {
				ring = append(ring, orb.Point{pt.X, pt.Y})
			}
			if ring[0] != ring[len(ring)-1] {
				ring = append(ring, ring[0])
			}
			op = append(op, ring)
		}
		if len(op) > 0 {
			mp = append(mp, op)
		}
	}
	return mp
}
