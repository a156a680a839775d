package cn

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellSizeFor(t *testing.T) {
	t.Run("geographic at the equator", func(t *testing.T) {
		w, h := CellSizeFor(30, wgs84, 0)
		assert.InDelta(t, 30.0/111320.0, w, 1e-15)
		// Height uses metres per degree of latitude; within 1% of the
		// equatorial longitude figure.
		assert.InEpsilon(t, 30.0/111320.0, h, 0.01)
		assert.InDelta(t, 30.0/110574.0, h, 1e-15)
	})

	t.Run("geographic at 60 degrees", func(t *testing.T) {
		w, _ := CellSizeFor(30, wgs84, 60)
		assert.InDelta(t, 30.0/(111320.0*0.5), w, 1e-12)
	})

	t.Run("projected keeps units", func(t *testing.T) {
		w, h := CellSizeFor(30, utm17, 45)
		assert.InDelta(t, 30.0, w, 0)
		assert.InDelta(t, 30.0, h, 0)
	})
}

func rasterRow(r *Raster, row int) []float64 {
	return r.Cells[row*r.Cols : (row+1)*r.Cols]
}

func TestRasterize(t *testing.T) {
	records := []DissolvedRecord{
		{CN: 66, Geometry: square(0, 0, 100), AreaHectares: 1},
		{CN: 83, Geometry: rect(100, 0, 150, 100), AreaHectares: 0.5},
		{CN: 89, Geometry: rect(150, 0, 200, 100), AreaHectares: 0.5},
	}

	for _, workers := range []int{1, 3} {
		r, err := Rasterize(records, 50, utm17, Options{Workers: workers})
		require.NoError(t, err)

		assert.Equal(t, 4, r.Cols)
		assert.Equal(t, 2, r.Rows)
		assert.Equal(t, Bounds{MinX: 0, MinY: 0, MaxX: 200, MaxY: 100}, r.Bounds())
		assert.Equal(t, []float64{66, 66, 83, 89}, rasterRow(r, 0))
		assert.Equal(t, []float64{66, 66, 83, 89}, rasterRow(r, 1))
		assert.True(t, r.CRS.Equal(utm17))
	}
}

func TestRasterize_NoDataInvariant(t *testing.T) {
	records := []DissolvedRecord{
		{CN: 70, Geometry: square(0, 0, 100), AreaHectares: 1},
		{CN: 90, Geometry: square(200, 0, 100), AreaHectares: 1},
	}

	r, err := Rasterize(records, 50, utm17, Options{Workers: 2})
	require.NoError(t, err)
	require.Equal(t, 6, r.Cols)

	for row := 0; row < r.Rows; row++ {
		assert.Equal(t, []float64{70, 70, NoData, NoData, 90, 90}, rasterRow(r, row))
	}
	assert.InDelta(t, 0, r.NoData, 0)
	assert.Equal(t, 8, r.ValidCount())
	assert.Equal(t, []HistogramBin{{CN: 70, Cells: 4}, {CN: 90, Cells: 4}}, r.Histogram())
}

func TestRasterize_LaterRecordWins(t *testing.T) {
	records := []DissolvedRecord{
		{CN: 70, Geometry: square(0, 0, 100), AreaHectares: 1},
		{CN: 90, Geometry: square(50, 0, 100), AreaHectares: 1},
	}

	r, err := Rasterize(records, 50, utm17, Options{Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{70, 90, 90}, rasterRow(r, 0))
}

func TestRasterize_SnapsExtentToGrid(t *testing.T) {
	records := []DissolvedRecord{{CN: 75, Geometry: rect(5, 12, 95, 38), AreaHectares: 1}}

	r, err := Rasterize(records, 10, utm17, Options{Workers: 1})
	require.NoError(t, err)

	assert.Equal(t, Bounds{MinX: 0, MinY: 10, MaxX: 100, MaxY: 40}, r.Bounds())
	assert.Equal(t, 10, r.Cols)
	assert.Equal(t, 3, r.Rows)

	x, y := r.CellCenter(0, 0)
	assert.InDelta(t, 5, x, 1e-9)
	assert.InDelta(t, 35, y, 1e-9)

	// Centre (5, 35) is on the western edge; (15, 35) is inside.
	assert.InDelta(t, 75, r.Value(1, 0), 0)
}

func TestRasterize_Geographic(t *testing.T) {
	records := []DissolvedRecord{{CN: 80, Geometry: square(0, 0, 0.01), AreaHectares: 123}}

	r, err := Rasterize(records, 30, wgs84, Options{Workers: 2})
	require.NoError(t, err)

	w, h := CellSizeFor(30, wgs84, 0.005)
	assert.InDelta(t, w, r.CellWidth, 1e-15)
	assert.InDelta(t, h, r.CellHeight, 1e-15)
	// Roughly 1113 m by 1106 m at 30 m.
	assert.InDelta(t, 38, r.Cols, 1)
	assert.InDelta(t, 38, r.Rows, 1)
	assert.Greater(t, r.ValidCount(), 34*34)
}

func TestRasterize_Errors(t *testing.T) {
	records := []DissolvedRecord{{CN: 70, Geometry: square(0, 0, 1000), AreaHectares: 100}}

	for _, size := range []float64{0, -30, math.NaN(), math.Inf(1)} {
		_, err := Rasterize(records, size, utm17, DefaultOptions())
		var rerr *RasterizationError
		require.True(t, errors.As(err, &rerr), "cell size %v", size)
	}

	_, err := Rasterize(records, 1, utm17, Options{Workers: 1, MaxRasterCells: 1000})
	var rerr *RasterizationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, int64(1_000_000), rerr.Cells)
	assert.Equal(t, int64(1000), rerr.Limit)
	assert.Contains(t, rerr.Error(), "limit 1000")

	_, err = Rasterize(nil, 30, utm17, DefaultOptions())
	require.ErrorAs(t, err, &rerr)
}
