package cn

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/beetlebugorg/curvenumber/internal/crs"
)

// SoilFeature is a soil polygon with its resolved hydrologic group.
type SoilFeature struct {
	Index      int    // Position in the source layer
	Geometry   geom.Polygonal
	RawGroup   string // Trimmed, upper-cased source label
	Group      HydroGroup
	Replaced   bool // A dual label was resolved by the replacement map
	Attributes map[string]any
}

// SoilLayer is a preprocessed soil layer in the target CRS.
type SoilLayer struct {
	CRS      CRS
	Features []SoilFeature

	// Replacements counts the features resolved from each dual label.
	Replacements map[DualGroup]int
}

// LandUseFeature is a land use polygon with its integer class code.
type LandUseFeature struct {
	Index      int
	Geometry   geom.Polygonal
	RawCode    string
	Code       int
	CodeValid  bool // Code could be coerced to an integer
	Attributes map[string]any
}

// LandUseLayer is a preprocessed land use layer in the target CRS.
type LandUseLayer struct {
	CRS      CRS
	Features []LandUseFeature
}

// Zone is a polygon used to summarize raster cells.
type Zone struct {
	ID         string
	Index      int
	Geometry   geom.Polygonal
	Attributes map[string]any
}

// ZoneLayer is a preprocessed zone layer.
type ZoneLayer struct {
	CRS   CRS
	Zones []Zone
}

// PreprocessSoil reprojects the soil layer to target and resolves each
// feature's hydrologic group from field.
//
// Dual labels (A/D, B/D, C/D) are resolved through repl. A label that does
// not resolve to A–D keeps the feature with GroupUnresolved and produces a
// warning. The input layer is not modified.
func PreprocessSoil(layer *Layer, target CRS, field string, repl GroupReplacementMap) (*SoilLayer, []Warning, error) {
	if layer == nil {
		return nil, nil, &OverlayError{Layer: "soil", Reason: "layer is nil"}
	}
	t, err := transformFor(layer.CRS, target)
	if err != nil {
		return nil, nil, err
	}

	out := &SoilLayer{
		CRS:          target,
		Features:     make([]SoilFeature, 0, len(layer.Features)),
		Replacements: make(map[DualGroup]int),
	}
	var warnings []Warning

	for i, f := range layer.Features {
		g, err := transformGeometry(f.Geometry, t, layer.CRS, target)
		if err != nil {
			return nil, nil, err
		}
		if isEmptyGeometry(g) {
			warnings = append(warnings, emptyGeometryWarning("soil", i))
		}

		raw := strings.ToUpper(attrString(f.Attributes[field]))
		group, replaced := repl.Resolve(raw)
		if replaced {
			dual, _ := ParseDualGroup(raw)
			out.Replacements[dual]++
		}
		if !group.Valid() {
			warnings = append(warnings, Warning{
				Kind:    WarningInvalidGroup,
				Layer:   "soil",
				Index:   i,
				Field:   field,
				Value:   raw,
				Message: fmt.Sprintf("hydrologic group %q is not A, B, C or D", raw),
			})
		}

		out.Features = append(out.Features, SoilFeature{
			Index:      i,
			Geometry:   g,
			RawGroup:   raw,
			Group:      group,
			Replaced:   replaced,
			Attributes: copyAttributes(f.Attributes),
		})
	}
	return out, warnings, nil
}

// emptyGeometryWarning reports a feature with no polygons or no area. The
// feature is kept but never reaches overlay or zonal output.
func emptyGeometryWarning(layer string, i int) Warning {
	return Warning{
		Kind:    WarningEmptyGeometry,
		Layer:   layer,
		Index:   i,
		Message: "geometry is empty or has no area",
	}
}

// PreprocessLandUse reprojects the land use layer to target and coerces
// field to an integer code. Integral floats and numeric strings ("21",
// "21.0") are accepted; anything else is kept with CodeValid false and a
// warning.
func PreprocessLandUse(layer *Layer, target CRS, field string) (*LandUseLayer, []Warning, error) {
	if layer == nil {
		return nil, nil, &OverlayError{Layer: "landuse", Reason: "layer is nil"}
	}
	t, err := transformFor(layer.CRS, target)
	if err != nil {
		return nil, nil, err
	}

	out := &LandUseLayer{
		CRS:      target,
		Features: make([]LandUseFeature, 0, len(layer.Features)),
	}
	var warnings []Warning

	for i, f := range layer.Features {
		g, err := transformGeometry(f.Geometry, t, layer.CRS, target)
		if err != nil {
			return nil, nil, err
		}
		if isEmptyGeometry(g) {
			warnings = append(warnings, emptyGeometryWarning("landuse", i))
		}

		raw := attrString(f.Attributes[field])
		code, ok := coerceLandUseCode(f.Attributes[field])
		if !ok {
			warnings = append(warnings, Warning{
				Kind:    WarningInvalidLandUseCode,
				Layer:   "landuse",
				Index:   i,
				Field:   field,
				Value:   raw,
				Message: fmt.Sprintf("land use code %q is not an integer", raw),
			})
		}

		out.Features = append(out.Features, LandUseFeature{
			Index:      i,
			Geometry:   g,
			RawCode:    raw,
			Code:       code,
			CodeValid:  ok,
			Attributes: copyAttributes(f.Attributes),
		})
	}
	return out, warnings, nil
}

// PreprocessZones reprojects a zone layer to target and reads zone IDs from
// idField. Zones without an ID are named after their 1-based position; when
// idField is set this also produces a warning.
func PreprocessZones(layer *Layer, target CRS, idField string) (*ZoneLayer, []Warning, error) {
	if layer == nil {
		return nil, nil, &OverlayError{Layer: "zones", Reason: "layer is nil"}
	}
	t, err := transformFor(layer.CRS, target)
	if err != nil {
		return nil, nil, err
	}

	out := &ZoneLayer{CRS: target, Zones: make([]Zone, 0, len(layer.Features))}
	var warnings []Warning

	for i, f := range layer.Features {
		g, err := transformGeometry(f.Geometry, t, layer.CRS, target)
		if err != nil {
			return nil, nil, err
		}
		if isEmptyGeometry(g) {
			warnings = append(warnings, emptyGeometryWarning("zones", i))
		}

		id := ""
		if idField != "" {
			id = attrString(f.Attributes[idField])
			if id == "" {
				warnings = append(warnings, Warning{
					Kind:    WarningMissingZoneID,
					Layer:   "zones",
					Index:   i,
					Field:   idField,
					Message: fmt.Sprintf("zone has no %s value", idField),
				})
			}
		}
		if id == "" {
			id = strconv.Itoa(i + 1)
		}

		out.Zones = append(out.Zones, Zone{
			ID:         id,
			Index:      i,
			Geometry:   g,
			Attributes: copyAttributes(f.Attributes),
		})
	}
	return out, warnings, nil
}

// transformFor returns nil when no reprojection is needed.
func transformFor(from, to CRS) (proj.Transformer, error) {
	if from.IsZero() || to.IsZero() || from.Equal(to) {
		return nil, nil
	}
	t, err := crs.NewTransform(from, to)
	if err != nil {
		return nil, &ReprojectionError{From: from.String(), To: to.String(), Err: err}
	}
	return t, nil
}

func transformGeometry(g geom.Polygonal, t proj.Transformer, from, to CRS) (geom.Polygonal, error) {
	if t == nil || g == nil {
		return g, nil
	}
	out, err := reproject(g, t)
	if err != nil {
		return nil, &ReprojectionError{From: from.String(), To: to.String(), Err: err}
	}
	return out, nil
}

// attrString renders an attribute value as trimmed text. nil is "".
func attrString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// coerceLandUseCode converts an attribute value to an integer class code.
func coerceLandUseCode(v any) (int, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint8:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return int(x), true
	case float64:
		return integralFloat(x)
	case float32:
		return integralFloat(float64(x))
	default:
		return parseLandUseCode(attrString(x))
	}
}

// parseLandUseCode parses "21" or "21.0". Fractional values are rejected.
func parseLandUseCode(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return integralFloat(f)
}

func integralFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func copyAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
