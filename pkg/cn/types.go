package cn

import (
	"fmt"
	"strings"

	"github.com/beetlebugorg/curvenumber/internal/crs"
	"github.com/ctessum/geom"
)

// CRS identifies the coordinate reference system of a layer or raster.
type CRS = crs.CRS

// ParseCRS resolves "EPSG:<code>", a known alias, a proj4 string or WKT.
func ParseCRS(s string) (CRS, error) {
	return crs.Parse(s)
}

// HydroGroup is an NRCS hydrologic soil group.
//
// Groups A through D have increasing runoff potential. GroupUnresolved marks
// soil whose label could not be resolved to a single group; it never matches
// a lookup table entry.
type HydroGroup uint8

const (
	GroupUnresolved HydroGroup = iota
	GroupA
	GroupB
	GroupC
	GroupD
)

// Groups lists the resolvable hydrologic groups in lookup column order.
var Groups = []HydroGroup{GroupA, GroupB, GroupC, GroupD}

// ParseHydroGroup returns the group for a single-letter label. Anything
// other than A, B, C or D (case-insensitive) is GroupUnresolved.
func ParseHydroGroup(s string) HydroGroup {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return GroupA
	case "B":
		return GroupB
	case "C":
		return GroupC
	case "D":
		return GroupD
	default:
		return GroupUnresolved
	}
}

// Valid reports whether g is one of A, B, C or D.
func (g HydroGroup) Valid() bool {
	return g >= GroupA && g <= GroupD
}

func (g HydroGroup) String() string {
	switch g {
	case GroupA:
		return "A"
	case GroupB:
		return "B"
	case GroupC:
		return "C"
	case GroupD:
		return "D"
	default:
		return "Unresolved"
	}
}

// DualGroup is a drained/undrained dual hydrologic group label.
type DualGroup uint8

const (
	DualAD DualGroup = iota + 1
	DualBD
	DualCD
)

// DualGroups lists every dual label.
var DualGroups = []DualGroup{DualAD, DualBD, DualCD}

// ParseDualGroup parses "A/D", "B/D" or "C/D".
func ParseDualGroup(s string) (DualGroup, bool) {
	switch strings.ToUpper(strings.ReplaceAll(s, " ", "")) {
	case "A/D":
		return DualAD, true
	case "B/D":
		return DualBD, true
	case "C/D":
		return DualCD, true
	default:
		return 0, false
	}
}

func (d DualGroup) String() string {
	switch d {
	case DualAD:
		return "A/D"
	case DualBD:
		return "B/D"
	case DualCD:
		return "C/D"
	default:
		return fmt.Sprintf("DualGroup(%d)", uint8(d))
	}
}

// GroupReplacementMap resolves dual labels to a single group. Dual labels
// absent from the map stay unresolved.
type GroupReplacementMap map[DualGroup]HydroGroup

// Resolve maps a raw soil label to a hydrologic group. The second result
// reports whether a dual-label replacement was applied.
func (m GroupReplacementMap) Resolve(raw string) (HydroGroup, bool) {
	if dual, ok := ParseDualGroup(raw); ok {
		if g, ok := m[dual]; ok && g.Valid() {
			return g, true
		}
		return GroupUnresolved, false
	}
	return ParseHydroGroup(raw), false
}

// Feature is a polygon or multipolygon with its source attributes.
type Feature struct {
	Geometry   geom.Polygonal
	Attributes map[string]any
}

// Layer is an ordered feature collection sharing one CRS and schema.
type Layer struct {
	Name     string
	CRS      CRS
	Features []Feature
}

// WarningKind classifies a non-fatal reported condition.
type WarningKind string

const (
	WarningInvalidGroup       WarningKind = "invalid_hydro_group"
	WarningInvalidLandUseCode WarningKind = "invalid_landuse_code"
	WarningMissingZoneID      WarningKind = "missing_zone_id"
	WarningEmptyGeometry      WarningKind = "empty_geometry"
)

// Warning is a per-row condition reported alongside successful output.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Layer   string      `json:"layer"`
	Index   int         `json:"index"`
	Field   string      `json:"field,omitempty"`
	Value   string      `json:"value,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s[%d]: %s", w.Layer, w.Index, w.Message)
}
