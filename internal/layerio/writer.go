package layerio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"github.com/beetlebugorg/curvenumber/pkg/cn"
)

// WriteDissolvedGeoJSON writes one feature per dissolved record with CN,
// area_ha, polygon_count and runoff_class properties.
func WriteDissolvedGeoJSON(w io.Writer, records []cn.DissolvedRecord) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		f := geojson.NewFeature(toOrb(r.Geometry))
		f.Properties["CN"] = r.CN
		f.Properties["area_ha"] = r.AreaHectares
		f.Properties["polygon_count"] = r.PolygonCount
		f.Properties["runoff_class"] = cn.ClassifyRunoff(r.CN).String()
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal dissolved features: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write dissolved features: %w", err)
	}
	return nil
}

// WriteZoneStatsCSV writes one row per zone. Zones without valid cells have
// empty statistic columns.
func WriteZoneStatsCSV(w io.Writer, idColumn string, zones []cn.ZoneStats) error {
	if idColumn == "" {
		idColumn = "zone"
	}
	cw := csv.NewWriter(w)
	header := []string{idColumn, "count", "min", "max", "mean", "median", "std", "cv", "range", "sum"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, z := range zones {
		row := make([]string, len(header))
		row[0] = z.ZoneID
		row[1] = strconv.Itoa(z.Count)
		if s := z.Summary; s != nil {
			for i, v := range []float64{s.Min, s.Max, s.Mean, s.Median, s.StdDev, s.CV, s.Range, s.Sum} {
				row[i+2] = formatStat(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RasterSummary describes the CN grid without its cells.
type RasterSummary struct {
	Cols       int               `json:"cols"`
	Rows       int               `json:"rows"`
	CellWidth  float64           `json:"cell_width"`
	CellHeight float64           `json:"cell_height"`
	MinX       float64           `json:"min_x"`
	MaxY       float64           `json:"max_y"`
	NoData     float64           `json:"nodata"`
	ValidCells int               `json:"valid_cells"`
	Histogram  []cn.HistogramBin `json:"histogram"`
}

// Report is the JSON summary of a run.
type Report struct {
	CRS          string               `json:"crs"`
	Lookup       string               `json:"lookup"`
	CellSize     float64              `json:"cell_size"`
	Global       cn.GlobalStats       `json:"global"`
	Distribution []cn.DistributionRow `json:"distribution"`
	Raster       *RasterSummary       `json:"raster,omitempty"`
	Zones        []cn.ZoneStats       `json:"zones,omitempty"`
	Warnings     []cn.Warning         `json:"warnings"`
	Unmatched    []cn.UnmatchedPair   `json:"unmatched_pairs"`
	Replacements map[string]int       `json:"replacements"`
	Timings      []cn.StageTiming     `json:"timings"`
}

// NewReport builds a report from a run result.
func NewReport(res *cn.Result, lookup string, cellSize float64) Report {
	rep := Report{
		CRS:          res.CRS.String(),
		Lookup:       lookup,
		CellSize:     cellSize,
		Global:       res.Global,
		Distribution: res.Distribution,
		Zones:        res.Zones,
		Warnings:     res.Warnings,
		Unmatched:    res.Unmatched,
		Replacements: make(map[string]int, len(res.Replacements)),
		Timings:      res.Timings,
	}
	for dual, n := range res.Replacements {
		rep.Replacements[dual.String()] = n
	}
	if rep.Warnings == nil {
		rep.Warnings = []cn.Warning{}
	}
	if rep.Unmatched == nil {
		rep.Unmatched = []cn.UnmatchedPair{}
	}
	if r := res.Raster; r != nil {
		rep.Raster = &RasterSummary{
			Cols:       r.Cols,
			Rows:       r.Rows,
			CellWidth:  r.CellWidth,
			CellHeight: r.CellHeight,
			MinX:       r.MinX,
			MaxY:       r.MaxY,
			NoData:     r.NoData,
			ValidCells: r.ValidCount(),
			Histogram:  r.Histogram(),
		}
	}
	return rep
}

// WriteReport writes rep as indented JSON.
func WriteReport(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
