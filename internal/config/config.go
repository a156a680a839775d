package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/beetlebugorg/curvenumber/internal/crs"
)

// Config holds run settings, populated from environment variables.
type Config struct {
	HydroGroupField string
	LandUseField    string
	ZoneField       string
	CRS             crs.CRS
	CellSize        float64

	// Replacement groups for the dual labels A/D, B/D and C/D.
	ReplaceAD string
	ReplaceBD string
	ReplaceCD string

	// LookupCSV selects a custom lookup table. Empty means the built-in NLCD table.
	LookupCSV string

	MaxRasterCells int64
	Workers        int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	target, err := crs.Parse(sharedcfg.EnvOrDefault("CN_CRS", crs.WGS84))
	if err != nil {
		return nil, fmt.Errorf("invalid CN_CRS: %w", err)
	}

	cellSize, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("CN_CELL_SIZE", "30"), 64)
	if err != nil || !(cellSize > 0) {
		return nil, errors.New("invalid CN_CELL_SIZE")
	}

	maxCells, err := strconv.ParseInt(sharedcfg.EnvOrDefault("CN_MAX_RASTER_CELLS", "50000000"), 10, 64)
	if err != nil || maxCells <= 0 {
		return nil, errors.New("invalid CN_MAX_RASTER_CELLS")
	}

	workers := runtime.NumCPU()
	if s := os.Getenv("CN_WORKERS"); s != "" {
		workers, err = strconv.Atoi(s)
		if err != nil || workers <= 0 {
			return nil, errors.New("invalid CN_WORKERS")
		}
	}

	cfg := &Config{
		HydroGroupField: sharedcfg.EnvOrDefault("CN_HYDGRP_FIELD", "hydgrpdcd"),
		LandUseField:    sharedcfg.EnvOrDefault("CN_LANDUSE_FIELD", "gridcode"),
		ZoneField:       os.Getenv("CN_ZONE_FIELD"),
		CRS:             target,
		CellSize:        cellSize,
		ReplaceAD:       strings.ToUpper(sharedcfg.EnvOrDefault("CN_REPLACE_AD", "D")),
		ReplaceBD:       strings.ToUpper(sharedcfg.EnvOrDefault("CN_REPLACE_BD", "D")),
		ReplaceCD:       strings.ToUpper(sharedcfg.EnvOrDefault("CN_REPLACE_CD", "D")),
		LookupCSV:       os.Getenv("CN_LOOKUP_CSV"),
		MaxRasterCells:  maxCells,
		Workers:         workers,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.HydroGroupField == "" {
		return nil, errors.New("CN_HYDGRP_FIELD is required")
	}
	if cfg.LandUseField == "" {
		return nil, errors.New("CN_LANDUSE_FIELD is required")
	}
	for name, v := range map[string]string{
		"CN_REPLACE_AD": cfg.ReplaceAD,
		"CN_REPLACE_BD": cfg.ReplaceBD,
		"CN_REPLACE_CD": cfg.ReplaceCD,
	} {
		switch v {
		case "A", "B", "C", "D":
		default:
			return nil, fmt.Errorf("%s must be one of A, B, C, D", name)
		}
	}

	return cfg, nil
}
