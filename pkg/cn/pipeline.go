package cn

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Input gathers everything a run needs.
type Input struct {
	Soil    *Layer
	LandUse *Layer
	Zones   *Layer // Optional

	Table *LookupTable

	HydroGroupField string
	LandUseField    string
	ZoneField       string

	// CRS is the working CRS for overlay, dissolve and rasterization.
	// If zero, the soil layer CRS is used.
	CRS      CRS
	CellSize float64

	Replacements GroupReplacementMap
}

// Recorder receives measurements from a run. The command records to
// Prometheus; a nil Recorder in RunOptions records nothing.
type Recorder interface {
	StageCompleted(stage string, d time.Duration, features int)
	Warning(kind string)
	UnmatchedPairs(n int)
	CNValues(n int)
	RasterCells(valid, nodata int)
	RunCompleted(err error)
}

type noopRecorder struct{}

func (noopRecorder) StageCompleted(string, time.Duration, int) {}
func (noopRecorder) Warning(string)                            {}
func (noopRecorder) UnmatchedPairs(int)                        {}
func (noopRecorder) CNValues(int)                              {}
func (noopRecorder) RasterCells(int, int)                      {}
func (noopRecorder) RunCompleted(error)                        {}

// RunOptions configures logging, metrics and timing for Run.
type RunOptions struct {
	Options

	Logger  *slog.Logger    // If nil, logs are discarded
	Metrics Recorder        // If nil, nothing is recorded
	Clock   clockwork.Clock // If nil, the real clock is used
}

// StageTiming is the wall time of one pipeline stage.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Result is the output of a complete run.
type Result struct {
	CRS          CRS
	Assigned     *AssignedLayer
	Records      []DissolvedRecord
	Raster       *Raster
	Global       GlobalStats
	Distribution []DistributionRow
	Zones        []ZoneStats // Nil when Input.Zones is nil

	Warnings     []Warning
	Unmatched    []UnmatchedPair
	Replacements map[DualGroup]int
	Timings      []StageTiming
}

type runner struct {
	ctx     context.Context
	log     *slog.Logger
	metrics Recorder
	clock   clockwork.Clock
	timings []StageTiming
}

// Run executes preprocessing, overlay, assignment, dissolve, rasterization
// and statistics in order. ctx is checked between stages. Any fatal error
// aborts the run without a partial result.
func Run(ctx context.Context, in Input, opts RunOptions) (*Result, error) {
	r := &runner{
		ctx:     ctx,
		log:     opts.Logger,
		metrics: opts.Metrics,
		clock:   opts.Clock,
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.metrics == nil {
		r.metrics = noopRecorder{}
	}

	res, err := r.run(in, opts.Options)
	r.metrics.RunCompleted(err)
	if err != nil {
		r.log.Error("curve number run failed", "error", err)
		return nil, err
	}
	res.Timings = r.timings
	return res, nil
}

func (r *runner) run(in Input, opts Options) (*Result, error) {
	if in.Table == nil {
		return nil, errors.New("no lookup table")
	}
	if in.Soil == nil {
		return nil, &OverlayError{Layer: "soil", Reason: "layer is nil"}
	}
	if in.LandUse == nil {
		return nil, &OverlayError{Layer: "landuse", Reason: "layer is nil"}
	}

	target := in.CRS
	if target.IsZero() {
		target = in.Soil.CRS
	}
	res := &Result{CRS: target}

	r.log.Info("starting curve number run",
		"crs", target.String(),
		"lookup", in.Table.Name(),
		"lookup_entries", in.Table.Len(),
		"soil_features", len(in.Soil.Features),
		"landuse_features", len(in.LandUse.Features),
		"cell_size", in.CellSize,
	)

	var (
		soil    *SoilLayer
		landuse *LandUseLayer
		zones   *ZoneLayer
	)
	err := r.stage("preprocess", func() (int, error) {
		var warnings []Warning
		var err error
		soil, warnings, err = PreprocessSoil(in.Soil, target, in.HydroGroupField, in.Replacements)
		if err != nil {
			return 0, err
		}
		res.Warnings = append(res.Warnings, warnings...)

		landuse, warnings, err = PreprocessLandUse(in.LandUse, target, in.LandUseField)
		if err != nil {
			return 0, err
		}
		res.Warnings = append(res.Warnings, warnings...)

		if in.Zones != nil {
			zones, warnings, err = PreprocessZones(in.Zones, target, in.ZoneField)
			if err != nil {
				return 0, err
			}
			res.Warnings = append(res.Warnings, warnings...)
		}
		return len(soil.Features) + len(landuse.Features), nil
	})
	if err != nil {
		return nil, err
	}
	res.Replacements = soil.Replacements
	for _, dual := range DualGroups {
		if n := soil.Replacements[dual]; n > 0 {
			r.log.Info("replaced dual hydrologic group",
				"label", dual.String(), "group", in.Replacements[dual].String(), "features", n)
		}
	}
	r.recordWarnings(res.Warnings)

	var overlay *OverlayLayer
	err = r.stage("overlay", func() (int, error) {
		var err error
		overlay, err = Intersect(soil, landuse, opts)
		if err != nil {
			return 0, err
		}
		return len(overlay.Features), nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage("assign", func() (int, error) {
		res.Assigned, res.Unmatched = Assign(overlay, in.Table)
		return res.Assigned.MatchedCount(), nil
	})
	if err != nil {
		return nil, err
	}
	for _, p := range res.Unmatched {
		code := any(p.LandUseCode)
		if !p.CodeValid {
			code = p.RawCode
		}
		r.log.Warn("missing lookup combination",
			"landuse_code", code, "hydro_group", p.RawGroup, "polygons", p.Count)
	}
	r.metrics.UnmatchedPairs(len(res.Unmatched))

	err = r.stage("dissolve", func() (int, error) {
		var err error
		res.Records, err = Dissolve(res.Assigned, opts)
		return len(res.Records), err
	})
	if err != nil {
		return nil, err
	}
	r.metrics.CNValues(len(res.Records))

	err = r.stage("rasterize", func() (int, error) {
		var err error
		res.Raster, err = Rasterize(res.Records, in.CellSize, target, opts)
		if err != nil {
			return 0, err
		}
		return len(res.Raster.Cells), nil
	})
	if err != nil {
		return nil, err
	}
	valid := res.Raster.ValidCount()
	r.log.Info("raster created",
		"cols", res.Raster.Cols, "rows", res.Raster.Rows,
		"cell_width", res.Raster.CellWidth, "cell_height", res.Raster.CellHeight,
		"valid_cells", valid)
	r.metrics.RasterCells(valid, len(res.Raster.Cells)-valid)

	err = r.stage("stats", func() (int, error) {
		res.Global = ComputeGlobalStats(res.Records)
		res.Distribution = Distribution(res.Records)
		return len(res.Distribution), nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("global statistics",
		"weighted_mean", res.Global.WeightedMean,
		"median", res.Global.Median,
		"total_area_ha", res.Global.TotalAreaHectares)

	if zones != nil {
		err = r.stage("zonal", func() (int, error) {
			var err error
			res.Zones, err = ZonalStats(res.Raster, zones, opts)
			return len(res.Zones), err
		})
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

// stage runs fn after checking for cancellation, then records its duration
// and feature count.
func (r *runner) stage(name string, fn func() (int, error)) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	start := r.clock.Now()
	n, err := fn()
	elapsed := r.clock.Since(start)
	if err != nil {
		return err
	}

	r.timings = append(r.timings, StageTiming{Stage: name, Duration: elapsed})
	r.metrics.StageCompleted(name, elapsed, n)
	r.log.Info("stage complete", "stage", name, "count", n, "duration", elapsed)
	return nil
}

func (r *runner) recordWarnings(warnings []Warning) {
	for _, w := range warnings {
		r.log.Debug("input warning", "kind", string(w.Kind), "layer", w.Layer, "index", w.Index, "value", w.Value)
		r.metrics.Warning(string(w.Kind))
	}
	if len(warnings) > 0 {
		r.log.Warn("input warnings", "count", len(warnings))
	}
}
