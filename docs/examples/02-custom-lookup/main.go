package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ctessum/geom"

	"github.com/beetlebugorg/curvenumber/pkg/cn"
)

const lookupCSV = `LUValue,Description,A,B,C,D
1,Residential,57,72,81,86
2,Pasture,39,61,74,80
`

func main() {
	table, err := cn.ReadLookupCSV(strings.NewReader(lookupCSV), "county.csv")
	if err != nil {
		log.Fatal(err)
	}
	for _, code := range table.Codes() {
		fmt.Printf("%d %s\n", code, table.Description(code))
	}

	utm, _ := cn.ParseCRS("EPSG:26917")
	plot := geom.Polygon{{{X: 0, Y: 0}, {X: 300, Y: 0}, {X: 300, Y: 300}, {X: 0, Y: 300}}}

	soil := &cn.Layer{CRS: utm, Features: []cn.Feature{
		{Geometry: plot, Attributes: map[string]any{"hsg": "A"}},
	}}
	landuse := &cn.Layer{CRS: utm, Features: []cn.Feature{
		{Geometry: plot, Attributes: map[string]any{"lu": "3"}}, // not in the table
	}}

	_, err = cn.Run(context.Background(), cn.Input{
		Soil:            soil,
		LandUse:         landuse,
		Table:           table,
		HydroGroupField: "hsg",
		LandUseField:    "lu",
		CellSize:        30,
	}, cn.RunOptions{})
	if err != nil {
		// Every pair was missing from the table, so there is nothing to dissolve
		fmt.Printf("run failed: %v\n", err)
	}

	// Assign reports the missing pairs directly
	soilLayer, _, _ := cn.PreprocessSoil(soil, utm, "hsg", nil)
	luLayer, _, _ := cn.PreprocessLandUse(landuse, utm, "lu")
	overlay, err := cn.Intersect(soilLayer, luLayer, cn.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}
	_, unmatched := cn.Assign(overlay, table)
	for _, p := range unmatched {
		fmt.Printf("missing: land use %d, group %s (%d polygons)\n", p.LandUseCode, p.RawGroup, p.Count)
	}
}
