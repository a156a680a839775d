package cn

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// NoData is the raster value of cells no dissolved polygon covers.
const NoData = 0

const (
	metersPerDegreeLon = 111320.0 // At the equator
	metersPerDegreeLat = 110574.0
)

// Raster is a north-up CN grid. Cells are stored row-major starting at the
// top-left (MinX, MaxY) corner.
type Raster struct {
	CRS        CRS
	MinX       float64
	MaxY       float64
	CellWidth  float64
	CellHeight float64
	Cols       int
	Rows       int
	Cells      []float64
	NoData     float64
}

// Value returns the cell value at (col, row).
func (r *Raster) Value(col, row int) float64 {
	return r.Cells[row*r.Cols+col]
}

// CellCenter returns the CRS coordinates of the centre of (col, row).
func (r *Raster) CellCenter(col, row int) (x, y float64) {
	return r.MinX + (float64(col)+0.5)*r.CellWidth,
		r.MaxY - (float64(row)+0.5)*r.CellHeight
}

// Bounds returns the raster extent.
func (r *Raster) Bounds() Bounds {
	return Bounds{
		MinX: r.MinX,
		MinY: r.MaxY - float64(r.Rows)*r.CellHeight,
		MaxX: r.MinX + float64(r.Cols)*r.CellWidth,
		MaxY: r.MaxY,
	}
}

// ValidCount returns the number of cells holding a CN.
func (r *Raster) ValidCount() int {
	n := 0
	for _, v := range r.Cells {
		if v != r.NoData {
			n++
		}
	}
	return n
}

// HistogramBin is the number of cells holding one CN value.
type HistogramBin struct {
	CN    float64 `json:"cn"`
	Cells int     `json:"cells"`
}

// Histogram counts cells per CN value, ascending. NoData is excluded.
func (r *Raster) Histogram() []HistogramBin {
	counts := make(map[float64]int)
	for _, v := range r.Cells {
		if v != r.NoData {
			counts[v]++
		}
	}
	bins := make([]HistogramBin, 0, len(counts))
	for v, n := range counts {
		bins = append(bins, HistogramBin{CN: v, Cells: n})
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].CN < bins[j].CN })
	return bins
}

// CellSizeFor returns the cell width and height in CRS units.
//
// For geographic CRSs cellSize is taken in metres and converted to degrees
// at latitude lat: width = cellSize / (111320·cos(lat)), height =
// cellSize / 110574. Otherwise cellSize is already in CRS units.
func CellSizeFor(cellSize float64, c CRS, lat float64) (w, h float64) {
	if !c.IsGeographic() {
		return cellSize, cellSize
	}
	cos := math.Cos(lat * math.Pi / 180)
	return cellSize / (metersPerDegreeLon * cos), cellSize / metersPerDegreeLat
}

// Rasterize burns dissolved records into a grid.
//
// The extent is the union of record bounds snapped outward to the cell grid.
// A cell takes the CN of the record covering its centre; where records
// overlap the one later in records wins. Each row is filled from the edge
// crossings at its centre line, and rows are filled in parallel bands.
func Rasterize(records []DissolvedRecord, cellSize float64, c CRS, opts Options) (*Raster, error) {
	if math.IsNaN(cellSize) || math.IsInf(cellSize, 0) || cellSize <= 0 {
		return nil, &RasterizationError{CellSize: cellSize, Reason: "cell size must be a positive number"}
	}

	extent := emptyBounds()
	for _, rec := range records {
		if isEmptyGeometry(rec.Geometry) {
			continue
		}
		extent = extent.Union(boundsOf(rec.Geometry))
	}
	if extent.IsEmpty() {
		return nil, &RasterizationError{CellSize: cellSize, Reason: "no geometry to rasterize"}
	}

	w, h := CellSizeFor(cellSize, c, (extent.MinY+extent.MaxY)/2)
	if !(w > 0 && h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return nil, &RasterizationError{CellSize: cellSize, Reason: "cell size cannot be converted at this latitude"}
	}

	minX := math.Floor(extent.MinX/w) * w
	maxX := math.Ceil(extent.MaxX/w) * w
	minY := math.Floor(extent.MinY/h) * h
	maxY := math.Ceil(extent.MaxY/h) * h

	colsF := math.Max(1, math.Round((maxX-minX)/w))
	rowsF := math.Max(1, math.Round((maxY-minY)/h))
	limit := opts.maxRasterCells()
	if colsF*rowsF > float64(limit) {
		cells := int64(math.MaxInt64)
		if colsF*rowsF < math.MaxInt64 {
			cells = int64(colsF * rowsF)
		}
		return nil, &RasterizationError{
			CellSize: cellSize,
			Cells:    cells,
			Limit:    limit,
			Reason:   "grid exceeds the cell limit",
		}
	}

	r := &Raster{
		CRS:        c,
		MinX:       minX,
		MaxY:       maxY,
		CellWidth:  w,
		CellHeight: h,
		Cols:       int(colsF),
		Rows:       int(rowsF),
		NoData:     NoData,
	}
	r.Cells = make([]float64, r.Cols*r.Rows)

	shapes := make([]geom.Polygonal, len(records))
	for i, rec := range records {
		shapes[i] = rec.Geometry
	}
	table := newEdgeTable(r, shapes)

	rowBands := bands(r.Rows, opts.workers()*4)
	forEachIndex(len(rowBands), opts.workers(), func(i int) {
		var xs []float64
		for row := rowBands[i][0]; row < rowBands[i][1]; row++ {
			xs = r.burnRow(row, records, table, xs)
		}
	}, nil)

	return r, nil
}

// burnRow fills the spans of each record in turn, so later records
// overwrite earlier ones. Cells start as NoData.
func (r *Raster) burnRow(row int, records []DissolvedRecord, table *edgeTable, xs []float64) []float64 {
	base := row * r.Cols
	return table.spans(row, xs, func(k, c0, c1 int) {
		for col := c0; col < c1; col++ {
			r.Cells[base+col] = records[k].CN
		}
	})
}
