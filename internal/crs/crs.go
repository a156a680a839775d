// Package crs resolves coordinate reference system identifiers into
// projection definitions and builds coordinate transforms between them.
package crs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

// Common EPSG codes.
const (
	WGS84       = "EPSG:4326"
	NAD83       = "EPSG:4269"
	WebMercator = "EPSG:3857"
	CONUSAlbers = "EPSG:5070"
)

// Feet conversion factors for projected units.
const (
	metersPerFoot   = 0.3048
	metersPerUSFoot = 1200.0 / 3937.0
)

// CRS identifies a coordinate reference system.
//
// Code holds the normalized authority code ("EPSG:4326") when the CRS was
// resolved from one, and is empty for raw proj4 or WKT definitions.
type CRS struct {
	Code string
	Def  string

	geographic bool
	toMeter    float64
}

var fixed = map[string]string{
	WGS84:       "+proj=longlat +datum=WGS84 +no_defs",
	NAD83:       "+proj=longlat +datum=NAD83 +no_defs",
	WebMercator: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +no_defs",
	CONUSAlbers: "+proj=aea +lat_0=23 +lon_0=-96 +lat_1=29.5 +lat_2=45.5 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs",
}

var aliases = map[string]string{
	"WGS84":       WGS84,
	"WGS 84":      WGS84,
	"CRS84":       WGS84,
	"OGC:CRS84":   WGS84,
	"NAD83":       NAD83,
	"WEBMERCATOR": WebMercator,
}

// Parse resolves an identifier into a CRS. Accepted forms are "EPSG:<code>",
// a bare numeric code, a known alias such as "WGS84", a proj4 string starting
// with "+", or an OGC WKT definition.
func Parse(s string) (CRS, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CRS{}, fmt.Errorf("empty CRS identifier")
	}

	var c CRS
	switch {
	case strings.HasPrefix(s, "+"):
		c = CRS{Def: s}
	case isWKT(s):
		c = CRS{Def: s}
	default:
		code, err := normalizeCode(s)
		if err != nil {
			return CRS{}, err
		}
		def, ok := lookupCode(code)
		if !ok {
			return CRS{}, fmt.Errorf("unsupported CRS code %s", code)
		}
		c = CRS{Code: code, Def: def}
	}

	if _, err := proj.Parse(c.Def); err != nil {
		return CRS{}, fmt.Errorf("parse CRS %q: %w", s, err)
	}

	c.geographic, c.toMeter = describe(c.Def)
	return c, nil
}

// MustParse is like Parse but panics on error. Intended for package-level
// constants and tests.
func MustParse(s string) CRS {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// IsZero reports whether c is the zero value (no CRS assigned).
func (c CRS) IsZero() bool {
	return c.Def == ""
}

// IsGeographic reports whether coordinates are longitude/latitude degrees.
func (c CRS) IsGeographic() bool {
	return c.geographic
}

// MetersPerUnit returns the length of one linear CRS unit in metres.
// Geographic systems return 0 since degrees have no fixed length.
func (c CRS) MetersPerUnit() float64 {
	if c.geographic {
		return 0
	}
	if c.toMeter <= 0 {
		return 1
	}
	return c.toMeter
}

// Equal reports whether c and o describe the same system.
func (c CRS) Equal(o CRS) bool {
	if c.Code != "" && o.Code != "" {
		return c.Code == o.Code
	}
	return normalizeDef(c.Def) == normalizeDef(o.Def)
}

func (c CRS) String() string {
	if c.Code != "" {
		return c.Code
	}
	if len(c.Def) > 48 {
		return c.Def[:48] + "..."
	}
	return c.Def
}

// NewTransform builds a coordinate transform from one CRS to another.
func NewTransform(from, to CRS) (proj.Transformer, error) {
	src, err := proj.Parse(from.Def)
	if err != nil {
		return nil, fmt.Errorf("parse source CRS %s: %w", from, err)
	}
	dst, err := proj.Parse(to.Def)
	if err != nil {
		return nil, fmt.Errorf("parse target CRS %s: %w", to, err)
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("transform %s -> %s: %w", from, to, err)
	}
	if t == nil {
		t = identity
	}
	return t, nil
}

func identity(x, y float64) (float64, float64, error) {
	return x, y, nil
}

func normalizeCode(s string) (string, error) {
	if alias, ok := aliases[strings.ToUpper(s)]; ok {
		return alias, nil
	}
	upper := strings.ToUpper(s)
	upper = strings.TrimPrefix(upper, "EPSG:")
	n, err := strconv.Atoi(upper)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid CRS identifier %q", s)
	}
	return "EPSG:" + strconv.Itoa(n), nil
}

// lookupCode returns the proj4 definition for an EPSG code. UTM zones on
// WGS84 (326xx north, 327xx south) and NAD83 (269xx) are generated.
func lookupCode(code string) (string, bool) {
	if def, ok := fixed[code]; ok {
		return def, true
	}
	n, err := strconv.Atoi(strings.TrimPrefix(code, "EPSG:"))
	if err != nil {
		return "", false
	}
	switch {
	case n >= 32601 && n <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", n-32600), true
	case n >= 32701 && n <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", n-32700), true
	case n >= 26901 && n <= 26923:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=NAD83 +units=m +no_defs", n-26900), true
	}
	return "", false
}

func isWKT(s string) bool {
	upper := strings.ToUpper(s)
	for _, p := range []string{"GEOGCS[", "PROJCS[", "GEOGCRS[", "PROJCRS[", "GEODCRS["} {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

var wktUnit = regexp.MustCompile(`UNIT\[\s*"[^"]*"\s*,\s*([0-9.eE+-]+)`)

// describe extracts whether a definition is geographic and its linear unit.
func describe(def string) (geographic bool, toMeter float64) {
	if isWKT(def) {
		upper := strings.ToUpper(def)
		if strings.HasPrefix(upper, "GEOG") || strings.HasPrefix(upper, "GEOD") {
			return true, 0
		}
		matches := wktUnit.FindAllStringSubmatch(def, -1)
		if len(matches) == 0 {
			return false, 1
		}
		f, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
		if err != nil || f <= 0 {
			return false, 1
		}
		return false, f
	}

	toMeter = 1
	for _, tok := range strings.Fields(def) {
		key, val, _ := strings.Cut(strings.TrimPrefix(tok, "+"), "=")
		switch key {
		case "proj":
			switch val {
			case "longlat", "latlong", "lonlat", "latlon":
				geographic = true
			}
		case "units":
			switch val {
			case "ft":
				toMeter = metersPerFoot
			case "us-ft":
				toMeter = metersPerUSFoot
			case "km":
				toMeter = 1000
			}
		case "to_meter":
			if f, err := strconv.ParseFloat(val, 64); err == nil && f > 0 {
				toMeter = f
			}
		}
	}
	if geographic {
		return true, 0
	}
	return false, toMeter
}

func normalizeDef(def string) string {
	return strings.Join(strings.Fields(def), " ")
}
