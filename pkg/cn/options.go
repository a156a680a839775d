package cn

import "runtime"

// DefaultMaxRasterCells caps the number of raster cells allocated by
// Rasterize unless Options.MaxRasterCells overrides it.
const DefaultMaxRasterCells = 50_000_000

// Options configures the parallel stages and resource ceilings.
type Options struct {
	// Workers specifies the number of goroutines used by the overlay,
	// dissolve, rasterize and zonal stages.
	// If 0, defaults to runtime.NumCPU(). 1 runs every stage serially.
	Workers int

	// MaxRasterCells is the largest grid Rasterize will allocate.
	// A cell size that would exceed it fails with a RasterizationError.
	// If 0, DefaultMaxRasterCells is used.
	MaxRasterCells int64

	// Progress is an optional callback for tracking overlay progress.
	// Parameters: (done, total) soil features processed so far.
	Progress func(done, total int)
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Workers:        runtime.NumCPU(),
		MaxRasterCells: DefaultMaxRasterCells,
	}
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

func (o Options) maxRasterCells() int64 {
	if o.MaxRasterCells <= 0 {
		return DefaultMaxRasterCells
	}
	return o.MaxRasterCells
}
