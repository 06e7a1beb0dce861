package raster

import (
	"fmt"
	"math"

	"github.com/bcgov/sfms-advisory/internal/geo"
)

// ResampleMethod selects how Align samples source cells.
type ResampleMethod int

const (
	// Nearest takes the closest source cell. Required for discrete class
	// rasters (fuel type, TPI, classified HFI) so codes survive exactly.
	Nearest ResampleMethod = iota

	// Bilinear interpolates the four surrounding source cells. Only
	// valid for continuous physical quantities such as temperature or
	// elevation, where smoothing is semantically meaningful.
	Bilinear
)

func (m ResampleMethod) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	}
	return fmt.Sprintf("ResampleMethod(%d)", int(m))
}

// Align resamples source onto the reference grid's exact extent,
// resolution, and CRS. The output's transform and pixel dimensions equal
// the reference's; cell values and nodata come from the source.
//
// Reference cells falling outside the source extent become nodata. A
// reference extent entirely outside the source therefore yields an
// all-nodata grid, which callers must treat as valid-but-empty.
// Incompatible coordinate systems fail with ErrReprojection.
func Align(source, reference *Grid, method ResampleMethod) (*Grid, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	if err := reference.Validate(); err != nil {
		return nil, err
	}

	// Probe the CRS pair once so an unsupported transform fails up front
	// rather than per cell.
	if _, _, err := geo.Transform(0, 0, reference.CRS, source.CRS); err != nil {
		return nil, fmt.Errorf("%w: %s to %s: %v", ErrReprojection, reference.CRS, source.CRS, err)
	}

	out := New(reference.Width, reference.Height, reference.Transform, reference.CRS, source.NoData)
	for row := 0; row < reference.Height; row++ {
		for col := 0; col < reference.Width; col++ {
			x, y := reference.CellCenter(col, row)
			sx, sy, err := geo.Transform(x, y, reference.CRS, source.CRS)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrReprojection, err)
			}
			scol, srow, err := source.Transform.Invert(sx, sy)
			if err != nil {
				return nil, err
			}

			var v float64
			switch method {
			case Bilinear:
				v = sampleBilinear(source, scol, srow)
			default:
				v = sampleNearest(source, scol, srow)
			}
			out.SetValue(col, row, v)
		}
	}
	return out, nil
}

// sampleNearest returns the cell containing the fractional pixel
// coordinate, or nodata when it falls outside the grid.
func sampleNearest(g *Grid, col, row float64) float64 {
	c := int(math.Floor(col))
	r := int(math.Floor(row))
	if c < 0 || c >= g.Width || r < 0 || r >= g.Height {
		return g.NoData
	}
	return g.Value(c, r)
}

// sampleBilinear interpolates between the four cell centres surrounding
// the fractional pixel coordinate. When any contributing cell is nodata
// or out of bounds it falls back to nearest, which keeps edges usable
// without inventing values from the nodata sentinel.
func sampleBilinear(g *Grid, col, row float64) float64 {
	fc := col - 0.5
	fr := row - 0.5
	c0 := int(math.Floor(fc))
	r0 := int(math.Floor(fr))
	c1 := c0 + 1
	r1 := r0 + 1

	if c0 < 0 || r0 < 0 || c1 >= g.Width || r1 >= g.Height {
		return sampleNearest(g, col, row)
	}

	v00 := g.Value(c0, r0)
	v10 := g.Value(c1, r0)
	v01 := g.Value(c0, r1)
	v11 := g.Value(c1, r1)
	if g.IsNoData(v00) || g.IsNoData(v10) || g.IsNoData(v01) || g.IsNoData(v11) {
		return sampleNearest(g, col, row)
	}

	wx := fc - float64(c0)
	wy := fr - float64(r0)
	top := v00*(1-wx) + v10*wx
	bottom := v01*(1-wx) + v11*wx
	return top*(1-wy) + bottom*wy
}
