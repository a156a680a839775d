// Command cngen builds curve number polygons, a CN raster summary and
// statistics from a soil layer and a land use layer.
//
// Usage:
//
//	go run ./cmd/cngen \
//	  -soil data/soils.shp \
//	  -landuse data/nlcd.shp \
//	  -zones data/watersheds.geojson \
//	  -out output
//
// Field names, CRS, cell size, dual-group replacements and the lookup table
// are configured through CN_* environment variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beetlebugorg/curvenumber/internal/config"
	"github.com/beetlebugorg/curvenumber/internal/layerio"
	"github.com/beetlebugorg/curvenumber/internal/observability"
	"github.com/beetlebugorg/curvenumber/pkg/cn"
)

func main() {
	soilPath := flag.String("soil", "", "soil polygon layer (.shp, .geojson)")
	landusePath := flag.String("landuse", "", "land use polygon layer (.shp, .geojson)")
	zonesPath := flag.String("zones", "", "optional zone layer for zonal statistics")
	soilCRS := flag.String("soil-crs", "", "override the soil layer CRS")
	landuseCRS := flag.String("landuse-crs", "", "override the land use layer CRS")
	zonesCRS := flag.String("zones-crs", "", "override the zone layer CRS")
	outDir := flag.String("out", "output", "output directory")
	flag.Parse()

	if *soilPath == "" || *landusePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paths := inputPaths{
		soil: *soilPath, soilCRS: *soilCRS,
		landuse: *landusePath, landuseCRS: *landuseCRS,
		zones: *zonesPath, zonesCRS: *zonesCRS,
	}
	if err := run(ctx, cfg, paths, *outDir, logger); err != nil {
		logger.Error("cngen failed", "error", err)
		os.Exit(1)
	}
}

type inputPaths struct {
	soil, soilCRS       string
	landuse, landuseCRS string
	zones, zonesCRS     string
}

func run(ctx context.Context, cfg *config.Config, paths inputPaths, outDir string, logger *slog.Logger) error {
	table, err := loadTable(cfg.LookupCSV)
	if err != nil {
		return err
	}

	soil, err := layerio.ReadLayer(paths.soil, paths.soilCRS, cfg.HydroGroupField)
	if err != nil {
		return err
	}
	landuse, err := layerio.ReadLayer(paths.landuse, paths.landuseCRS, cfg.LandUseField)
	if err != nil {
		return err
	}
	var zones *cn.Layer
	if paths.zones != "" {
		var fields []string
		if cfg.ZoneField != "" {
			fields = append(fields, cfg.ZoneField)
		}
		zones, err = layerio.ReadLayer(paths.zones, paths.zonesCRS, fields...)
		if err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	res, err := cn.Run(ctx, cn.Input{
		Soil:            soil,
		LandUse:         landuse,
		Zones:           zones,
		Table:           table,
		HydroGroupField: cfg.HydroGroupField,
		LandUseField:    cfg.LandUseField,
		ZoneField:       cfg.ZoneField,
		CRS:             cfg.CRS,
		CellSize:        cfg.CellSize,
		Replacements: cn.GroupReplacementMap{
			cn.DualAD: cn.ParseHydroGroup(cfg.ReplaceAD),
			cn.DualBD: cn.ParseHydroGroup(cfg.ReplaceBD),
			cn.DualCD: cn.ParseHydroGroup(cfg.ReplaceCD),
		},
	}, cn.RunOptions{
		Options: cn.Options{
			Workers:        cfg.Workers,
			MaxRasterCells: cfg.MaxRasterCells,
		},
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := writeFile(filepath.Join(outDir, "cn_polygons.geojson"), func(f *os.File) error {
		return layerio.WriteDissolvedGeoJSON(f, res.Records)
	}); err != nil {
		return err
	}
	if res.Zones != nil {
		if err := writeFile(filepath.Join(outDir, "zonal_stats.csv"), func(f *os.File) error {
			return layerio.WriteZoneStatsCSV(f, cfg.ZoneField, res.Zones)
		}); err != nil {
			return err
		}
	}
	if err := writeFile(filepath.Join(outDir, "report.json"), func(f *os.File) error {
		return layerio.WriteReport(f, layerio.NewReport(res, table.Name(), cfg.CellSize))
	}); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(filepath.Join(outDir, "metrics.prom"), reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}

	logger.Info("outputs written",
		"dir", outDir,
		"cn_values", len(res.Records),
		"weighted_mean", res.Global.WeightedMean,
		"unmatched_pairs", len(res.Unmatched),
		"warnings", len(res.Warnings))
	return nil
}

func loadTable(path string) (*cn.LookupTable, error) {
	if path == "" {
		return cn.NLCDTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lookup table: %w", err)
	}
	defer f.Close()
	return cn.ReadLookupCSV(f, path)
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
