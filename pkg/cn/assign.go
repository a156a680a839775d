package cn

import "sort"

// AssignedFeature is an overlay polygon with its looked-up curve number.
// CN is zero when Matched is false.
type AssignedFeature struct {
	OverlayFeature
	CN      float64
	Matched bool
}

// AssignedLayer is the overlay layer after CN assignment.
type AssignedLayer struct {
	CRS      CRS
	Features []AssignedFeature
}

// MatchedCount returns the number of features that received a CN.
func (l *AssignedLayer) MatchedCount() int {
	n := 0
	for _, f := range l.Features {
		if f.Matched {
			n++
		}
	}
	return n
}

// UnmatchedPair is a (land use code, group) combination missing from the
// lookup table, with the number of overlay polygons it affected.
type UnmatchedPair struct {
	LandUseCode int        `json:"landuse_code"`
	CodeValid   bool       `json:"code_valid"`
	RawCode     string     `json:"raw_code,omitempty"`
	Group       HydroGroup `json:"-"`
	RawGroup    string     `json:"hydro_group"`
	Count       int        `json:"count"`
}

type pairKey struct {
	code      int
	codeValid bool
	rawCode   string
	group     HydroGroup
	rawGroup  string
}

// Assign looks up a CN for every overlay feature.
//
// Features with an invalid code, an unresolved group or a combination
// absent from table are kept with Matched false. Each distinct miss is
// reported once, sorted by land use code then group.
func Assign(overlay *OverlayLayer, table *LookupTable) (*AssignedLayer, []UnmatchedPair) {
	if overlay == nil {
		return &AssignedLayer{}, nil
	}

	out := &AssignedLayer{
		CRS:      overlay.CRS,
		Features: make([]AssignedFeature, len(overlay.Features)),
	}
	misses := make(map[pairKey]int)

	for i, f := range overlay.Features {
		af := AssignedFeature{OverlayFeature: f}
		if f.LandUse.CodeValid {
			af.CN, af.Matched = table.Lookup(f.LandUse.Code, f.Soil.Group)
		}
		if !af.Matched {
			k := pairKey{
				code:      f.LandUse.Code,
				codeValid: f.LandUse.CodeValid,
				group:     f.Soil.Group,
			}
			if !k.codeValid {
				k.rawCode = f.LandUse.RawCode
			}
			if !k.group.Valid() {
				k.rawGroup = f.Soil.RawGroup
			}
			misses[k]++
		}
		out.Features[i] = af
	}

	if len(misses) == 0 {
		return out, nil
	}

	pairs := make([]UnmatchedPair, 0, len(misses))
	for k, n := range misses {
		raw := k.rawGroup
		if k.group.Valid() {
			raw = k.group.String()
		}
		pairs = append(pairs, UnmatchedPair{
			LandUseCode: k.code,
			CodeValid:   k.codeValid,
			RawCode:     k.rawCode,
			Group:       k.group,
			RawGroup:    raw,
			Count:       n,
		})
	}
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.CodeValid != b.CodeValid {
			return a.CodeValid
		}
		if a.LandUseCode != b.LandUseCode {
			return a.LandUseCode < b.LandUseCode
		}
		if a.RawCode != b.RawCode {
			return a.RawCode < b.RawCode
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.RawGroup < b.RawGroup
	})
	return out, pairs
}
