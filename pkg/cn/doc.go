// Package cn derives SCS Curve Number (CN) polygons and rasters from a soil
// hydrologic group layer and a land use layer.
//
// The engine is a one-shot batch computation over in-memory features. Each
// stage consumes the complete output of the previous one.
//
// # Basic Usage
//
//	target, _ := cn.ParseCRS("EPSG:5070")
//	res, err := cn.Run(ctx, cn.Input{
//	    Soil:            soil,
//	    LandUse:         landuse,
//	    Table:           cn.NLCDTable(),
//	    HydroGroupField: "hydgrpdcd",
//	    LandUseField:    "gridcode",
//	    CRS:             target,
//	    CellSize:        30,
//	    Replacements: cn.GroupReplacementMap{
//	        cn.DualAD: cn.GroupD,
//	        cn.DualBD: cn.GroupD,
//	        cn.DualCD: cn.GroupD,
//	    },
//	}, cn.RunOptions{Options: cn.DefaultOptions(), Logger: logger})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("weighted mean CN %.1f over %.0f ha\n",
//	    res.Global.WeightedMean, res.Global.TotalAreaHectares)
//
// # Stages
//
// The stages can also be called individually:
//
//	soil, warnings, err := cn.PreprocessSoil(layer, target, "hydgrpdcd", repl)
//	landuse, warnings, err := cn.PreprocessLandUse(layer, target, "gridcode")
//	overlay, err := cn.Intersect(soil, landuse, opts)
//	assigned, missing := cn.Assign(overlay, table)
//	records, err := cn.Dissolve(assigned, opts)
//	raster, err := cn.Rasterize(records, 30, target, opts)
//	stats := cn.ComputeGlobalStats(records)
//	zones, err := cn.ZonalStats(raster, zoneLayer, opts)
//
// # Hydrologic Groups
//
// Soil labels resolve to GroupA through GroupD. Dual labels (A/D, B/D, C/D)
// are resolved once during preprocessing through a GroupReplacementMap. Any
// label that does not resolve becomes GroupUnresolved; the feature is kept,
// reported as a Warning, and never matches a lookup entry.
//
// # Areas and Cell Sizes
//
// Areas are reported in hectares. Projected layers use planar area scaled by
// the CRS linear unit; geographic layers use geodesic area. For geographic
// rasters the cell size is given in metres and converted to degrees at the
// centre latitude of the data.
//
// # Errors
//
// Fatal conditions are returned as *ReprojectionError, *OverlayError,
// *RasterizationError or ErrNoMatchedFeatures. Per-feature problems are
// returned as []Warning and []UnmatchedPair alongside the output.
package cn
