package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ctessum/geom"

	"github.com/beetlebugorg/curvenumber/pkg/cn"
)

func run(in cn.Input, opts cn.Options) error {
	_, err := cn.Run(context.Background(), in, cn.RunOptions{Options: opts})

	var rerr *cn.RasterizationError
	var oerr *cn.OverlayError
	var perr *cn.ReprojectionError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &rerr):
		if rerr.Limit > 0 {
			return fmt.Errorf("raster too large (%d cells); try a coarser cell size: %w", rerr.Cells, err)
		}
		return fmt.Errorf("bad cell size %g: %w", rerr.CellSize, err)
	case errors.As(err, &oerr):
		return fmt.Errorf("check the %q input: %w", oerr.Layer, err)
	case errors.As(err, &perr):
		return fmt.Errorf("cannot reproject from %s: %w", perr.From, err)
	case errors.Is(err, cn.ErrNoMatchedFeatures):
		return fmt.Errorf("lookup table does not cover the inputs: %w", err)
	default:
		return err
	}
}

func main() {
	utm, err := cn.ParseCRS("EPSG:32617")
	if err != nil {
		log.Fatal(err)
	}
	area := geom.Polygon{{{X: 0, Y: 0}, {X: 5000, Y: 0}, {X: 5000, Y: 5000}, {X: 0, Y: 5000}}}

	in := cn.Input{
		Soil: &cn.Layer{CRS: utm, Features: []cn.Feature{
			{Geometry: area, Attributes: map[string]any{"hydgrpdcd": "C"}},
		}},
		LandUse: &cn.Layer{CRS: utm, Features: []cn.Feature{
			{Geometry: area, Attributes: map[string]any{"gridcode": 21}},
		}},
		Table:           cn.NLCDTable(),
		HydroGroupField: "hydgrpdcd",
		LandUseField:    "gridcode",
		CellSize:        1,
	}

	// 25 million cells against a one million cell ceiling
	opts := cn.DefaultOptions()
	opts.MaxRasterCells = 1_000_000
	if err := run(in, opts); err != nil {
		log.Printf("Expected error: %v", err)
	}

	in.CellSize = 10
	if err := run(in, opts); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Run succeeded at 10 m")

	in.LandUse = nil
	if err := run(in, opts); err != nil {
		log.Printf("Expected error: %v", err)
	}
}
