package cn

import (
	"errors"
	"fmt"
)

// ErrNoMatchedFeatures indicates that no overlay polygon received a curve
// number, so there is nothing to dissolve or rasterize.
var ErrNoMatchedFeatures = errors.New("no valid curve numbers found")

// ReprojectionError indicates no valid transform exists between two CRSs.
type ReprojectionError struct {
	From, To string
	Err      error
}

func (e *ReprojectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reproject %s -> %s: %v", e.From, e.To, e.Err)
	}
	return fmt.Sprintf("reproject %s -> %s: no valid transform", e.From, e.To)
}

func (e *ReprojectionError) Unwrap() error {
	return e.Err
}

// OverlayError indicates an overlay input layer is empty or unusable.
type OverlayError struct {
	Layer  string
	Reason string
}

func (e *OverlayError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("overlay: %s layer: %s", e.Layer, e.Reason)
	}
	return fmt.Sprintf("overlay: %s", e.Reason)
}

// RasterizationError indicates an invalid cell size or a grid over the
// configured cell ceiling. Callers recover by adjusting the parameter.
type RasterizationError struct {
	CellSize float64
	Cells    int64
	Limit    int64
	Reason   string
}

func (e *RasterizationError) Error() string {
	if e.Limit > 0 && e.Cells > e.Limit {
		return fmt.Sprintf("rasterize: %s (cell size %g gives %d cells, limit %d)",
			e.Reason, e.CellSize, e.Cells, e.Limit)
	}
	return fmt.Sprintf("rasterize: %s (cell size %g)", e.Reason, e.CellSize)
}
