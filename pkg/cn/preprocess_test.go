package cn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/curvenumber/internal/crs"
)

func TestGroupReplacementMap_Resolve(t *testing.T) {
	repl := GroupReplacementMap{DualAD: GroupA, DualBD: GroupD}

	tests := []struct {
		raw          string
		want         HydroGroup
		wantReplaced bool
	}{
		{"A", GroupA, false},
		{"d", GroupD, false},
		{"A/D", GroupA, true},
		{"b / d", GroupD, true},
		{"C/D", GroupUnresolved, false}, // not in the map
		{"", GroupUnresolved, false},
		{"E", GroupUnresolved, false},
		{"AB", GroupUnresolved, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, replaced := repl.Resolve(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantReplaced, replaced)
		})
	}
}

func TestGroupReplacementMap_Idempotent(t *testing.T) {
	for _, g := range Groups {
		got, replaced := replaceWithD.Resolve(g.String())
		assert.Equal(t, g, got)
		assert.False(t, replaced)
	}

	first, _, err := PreprocessSoil(soilFixture(), utm17, "hydgrpdcd", replaceWithD)
	require.NoError(t, err)
	assert.Equal(t, map[DualGroup]int{DualAD: 1}, first.Replacements)

	// Feed the resolved labels back through the same map.
	again := &Layer{CRS: utm17}
	for _, f := range first.Features {
		again.Features = append(again.Features, feature(f.Geometry, map[string]any{"hydgrpdcd": f.Group.String()}))
	}
	second, warnings, err := PreprocessSoil(again, utm17, "hydgrpdcd", replaceWithD)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, second.Replacements)
	for i := range first.Features {
		assert.Equal(t, first.Features[i].Group, second.Features[i].Group)
	}
}

func TestPreprocessSoil(t *testing.T) {
	layer := &Layer{
		CRS: utm17,
		Features: []Feature{
			feature(square(0, 0, 10), map[string]any{"hsg": "b"}),
			feature(square(10, 0, 10), map[string]any{"hsg": " a/d "}),
			feature(square(20, 0, 10), map[string]any{"hsg": "C/D"}),
			feature(square(30, 0, 10), map[string]any{"hsg": nil}),
			feature(square(40, 0, 10), map[string]any{"other": "A"}),
		},
	}
	repl := GroupReplacementMap{DualAD: GroupC}

	soil, warnings, err := PreprocessSoil(layer, utm17, "hsg", repl)
	require.NoError(t, err)
	require.Len(t, soil.Features, 5, "unresolved features are kept")

	assert.Equal(t, GroupB, soil.Features[0].Group)
	assert.Equal(t, GroupC, soil.Features[1].Group)
	assert.True(t, soil.Features[1].Replaced)
	assert.Equal(t, "A/D", soil.Features[1].RawGroup)
	assert.Equal(t, GroupUnresolved, soil.Features[2].Group)
	assert.Equal(t, GroupUnresolved, soil.Features[3].Group)
	assert.Equal(t, GroupUnresolved, soil.Features[4].Group)
	assert.Equal(t, map[DualGroup]int{DualAD: 1}, soil.Replacements)

	require.Len(t, warnings, 3)
	for i, w := range warnings {
		assert.Equal(t, WarningInvalidGroup, w.Kind)
		assert.Equal(t, "soil", w.Layer)
		assert.Equal(t, i+2, w.Index)
	}
	assert.Equal(t, "C/D", warnings[0].Value)
}

func TestPreprocessSoil_DoesNotMutateInput(t *testing.T) {
	layer := soilFixture()
	soil, _, err := PreprocessSoil(layer, utm17, "hydgrpdcd", replaceWithD)
	require.NoError(t, err)

	soil.Features[1].Attributes["hydgrpdcd"] = "changed"
	assert.Equal(t, "A/D", layer.Features[1].Attributes["hydgrpdcd"])
	assert.Len(t, layer.Features, 2)
}

func TestPreprocessLandUse_Coercion(t *testing.T) {
	values := []struct {
		in        any
		wantCode  int
		wantValid bool
	}{
		{21, 21, true},
		{int64(82), 82, true},
		{float64(41), 41, true},
		{"21", 21, true},
		{"21.0", 21, true},
		{" 42 ", 42, true},
		{21.5, 0, false},
		{"21.5", 0, false},
		{"forest", 0, false},
		{"", 0, false},
		{nil, 0, false},
	}

	layer := &Layer{CRS: utm17}
	for i, v := range values {
		layer.Features = append(layer.Features,
			feature(square(float64(i)*10, 0, 10), map[string]any{"gridcode": v.in}))
	}

	lu, warnings, err := PreprocessLandUse(layer, utm17, "gridcode")
	require.NoError(t, err)
	require.Len(t, lu.Features, len(values))

	invalid := 0
	for i, v := range values {
		f := lu.Features[i]
		assert.Equal(t, v.wantValid, f.CodeValid, "value %#v", v.in)
		if v.wantValid {
			assert.Equal(t, v.wantCode, f.Code, "value %#v", v.in)
		} else {
			invalid++
		}
	}
	assert.Len(t, warnings, invalid)
	for _, w := range warnings {
		assert.Equal(t, WarningInvalidLandUseCode, w.Kind)
	}
}

func TestPreprocess_Reprojects(t *testing.T) {
	// 0.001° square on the UTM 17N central meridian at the equator.
	layer := &Layer{
		CRS: wgs84,
		Features: []Feature{
			feature(rect(-81, 0, -80.999, 0.001), map[string]any{"hydgrpdcd": "A"}),
		},
	}

	soil, _, err := PreprocessSoil(layer, utm17, "hydgrpdcd", nil)
	require.NoError(t, err)
	assert.True(t, soil.CRS.Equal(utm17))

	b := boundsOf(soil.Features[0].Geometry)
	assert.InDelta(t, 500000, b.MinX, 0.01)
	assert.InDelta(t, 0, b.MinY, 0.01)
	assert.InDelta(t, 111, b.Width(), 1)
	assert.InDelta(t, 110, b.Height(), 1)

	// Source layer keeps its degrees.
	assert.InDelta(t, -81, boundsOf(layer.Features[0].Geometry).MinX, 0)
}

func TestPreprocess_ReprojectionError(t *testing.T) {
	bogus := crs.CRS{Code: "EPSG:0", Def: "+proj=nonexistent"}
	layer := &Layer{CRS: bogus, Features: []Feature{feature(square(0, 0, 1), nil)}}

	_, _, err := PreprocessLandUse(layer, utm17, "gridcode")
	require.Error(t, err)

	var rerr *ReprojectionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "EPSG:0", rerr.From)
	assert.Equal(t, "EPSG:32617", rerr.To)
}

func TestPreprocessZones(t *testing.T) {
	layer := &Layer{
		CRS: utm17,
		Features: []Feature{
			feature(square(0, 0, 10), map[string]any{"name": "upper"}),
			feature(square(10, 0, 10), map[string]any{"name": ""}),
			feature(square(20, 0, 10), map[string]any{"name": float64(7)}),
		},
	}

	zones, warnings, err := PreprocessZones(layer, utm17, "name")
	require.NoError(t, err)
	require.Len(t, zones.Zones, 3)
	assert.Equal(t, "upper", zones.Zones[0].ID)
	assert.Equal(t, "2", zones.Zones[1].ID)
	assert.Equal(t, "7", zones.Zones[2].ID)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarningMissingZoneID, warnings[0].Kind)
	assert.Equal(t, 1, warnings[0].Index)

	// Without an ID field every zone is numbered, silently.
	zones, warnings, err = PreprocessZones(layer, utm17, "")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "1", zones.Zones[0].ID)
}

func TestPreprocess_NilLayer(t *testing.T) {
	_, _, err := PreprocessSoil(nil, utm17, "hydgrpdcd", nil)
	var oerr *OverlayError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "soil", oerr.Layer)
}

func TestPreprocess_EmptyGeometryWarnings(t *testing.T) {
	layer := &Layer{
		CRS: utm17,
		Features: []Feature{
			feature(square(0, 0, 10), map[string]any{"hydgrpdcd": "B", "gridcode": 41, "name": "a"}),
			feature(nil, map[string]any{"hydgrpdcd": "B", "gridcode": 41, "name": "b"}),
			feature(rect(5, 5, 5, 20), map[string]any{"hydgrpdcd": "B", "gridcode": 41, "name": "c"}),
		},
	}

	check := func(t *testing.T, layerName string, warnings []Warning) {
		t.Helper()
		require.Len(t, warnings, 2)
		for i, w := range warnings {
			assert.Equal(t, WarningEmptyGeometry, w.Kind)
			assert.Equal(t, layerName, w.Layer)
			assert.Equal(t, i+1, w.Index)
		}
	}

	soil, warnings, err := PreprocessSoil(layer, utm17, "hydgrpdcd", nil)
	require.NoError(t, err)
	assert.Len(t, soil.Features, 3, "empty features are kept")
	check(t, "soil", warnings)

	_, warnings, err = PreprocessLandUse(layer, utm17, "gridcode")
	require.NoError(t, err)
	check(t, "landuse", warnings)

	_, warnings, err = PreprocessZones(layer, utm17, "name")
	require.NoError(t, err)
	check(t, "zones", warnings)
}
