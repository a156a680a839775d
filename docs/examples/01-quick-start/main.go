package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ctessum/geom"

	"github.com/beetlebugorg/curvenumber/pkg/cn"
)

func square(x, y, size float64) geom.Polygon {
	return geom.Polygon{{
		{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size},
	}}
}

func main() {
	utm, err := cn.ParseCRS("EPSG:32617")
	if err != nil {
		log.Fatal(err)
	}

	soil := &cn.Layer{Name: "soil", CRS: utm, Features: []cn.Feature{
		{Geometry: square(0, 0, 100), Attributes: map[string]any{"hydgrpdcd": "B"}},
		{Geometry: square(100, 0, 100), Attributes: map[string]any{"hydgrpdcd": "C/D"}},
	}}
	landuse := &cn.Layer{Name: "landuse", CRS: utm, Features: []cn.Feature{
		{Geometry: geom.Polygon{{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 0, Y: 100}}},
			Attributes: map[string]any{"gridcode": 82}},
	}}

	// Run the whole pipeline
	res, err := cn.Run(context.Background(), cn.Input{
		Soil:            soil,
		LandUse:         landuse,
		Table:           cn.NLCDTable(),
		HydroGroupField: "hydgrpdcd",
		LandUseField:    "gridcode",
		CellSize:        10,
		Replacements:    cn.GroupReplacementMap{cn.DualCD: cn.GroupD},
	}, cn.RunOptions{Options: cn.DefaultOptions()})
	if err != nil {
		log.Fatal(err)
	}

	for _, rec := range res.Records {
		fmt.Printf("CN %.0f: %.2f ha (%s)\n", rec.CN, rec.AreaHectares, cn.ClassifyRunoff(rec.CN))
	}
	fmt.Printf("Weighted mean CN: %.1f\n", res.Global.WeightedMean)
	fmt.Printf("Raster: %d x %d cells, %d valid\n", res.Raster.Cols, res.Raster.Rows, res.Raster.ValidCount())
}
