// Package raster implements the zonal statistics raster engine: threshold
// classification, grid alignment/resampling, vector cutline clipping, and
// area/distribution accumulation. Grids are ephemeral, held fully in
// memory, and discarded after accumulation; durable output is the stat
// rows the pipeline persists.
package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/bcgov/sfms-advisory/internal/geo"
)

var (
	// ErrInvalidGrid reports a grid whose transform, CRS, or backing
	// array violates the grid invariants.
	ErrInvalidGrid = errors.New("invalid raster grid")

	// ErrInvalidThresholds reports classification boundaries that are
	// empty or not strictly increasing.
	ErrInvalidThresholds = errors.New("invalid classification thresholds")

	// ErrShapeMismatch reports two grids whose dimensions differ where
	// identical shapes are required.
	ErrShapeMismatch = errors.New("raster shape mismatch")

	// ErrReprojection reports source and reference grids whose
	// coordinate systems cannot be transformed into one another.
	ErrReprojection = errors.New("raster reprojection failed")

	// ErrEmptyClip reports a cutline polygon that does not intersect the
	// raster extent. Callers treat this as "zone not covered", skip the
	// zone, and continue.
	ErrEmptyClip = errors.New("cutline does not intersect raster extent")
)

// Transform is a GDAL-style six-term affine geotransform mapping pixel
// space to world space:
//
//	x = OriginX + col*PixelWidth + row*RotationX
//	y = OriginY + col*RotationY + row*PixelHeight
//
// PixelHeight is conventionally negative for north-up grids.
type Transform struct {
	OriginX     float64
	PixelWidth  float64
	RotationX   float64
	OriginY     float64
	RotationY   float64
	PixelHeight float64
}

// Apply maps fractional pixel coordinates to world coordinates. Integer
// coordinates address cell corners; (col+0.5, row+0.5) is a cell centre.
func (t Transform) Apply(col, row float64) (x, y float64) {
	x = t.OriginX + col*t.PixelWidth + row*t.RotationX
	y = t.OriginY + col*t.RotationY + row*t.PixelHeight
	return x, y
}

// Invert maps world coordinates back to fractional pixel coordinates.
func (t Transform) Invert(x, y float64) (col, row float64, err error) {
	det := t.PixelWidth*t.PixelHeight - t.RotationX*t.RotationY
	if det == 0 {
		return 0, 0, fmt.Errorf("%w: singular geotransform", ErrInvalidGrid)
	}
	dx := x - t.OriginX
	dy := y - t.OriginY
	col = (dx*t.PixelHeight - dy*t.RotationX) / det
	row = (dy*t.PixelWidth - dx*t.RotationY) / det
	return col, row, nil
}

// PixelArea is the ground area of one cell in squared CRS units. The
// absolute value matters because PixelHeight is stored negative.
func (t Transform) PixelArea() float64 {
	return math.Abs(t.PixelWidth * t.PixelHeight)
}

// Grid is a two-dimensional raster: row-major cell values plus the
// georeferencing needed for spatial operations.
type Grid struct {
	Width     int
	Height    int
	Transform Transform
	CRS       geo.CRS
	NoData    float64
	Data      []float64
}

// New allocates a grid of the given shape with every cell set to nodata.
func New(width, height int, tr Transform, crs geo.CRS, noData float64) *Grid {
	data := make([]float64, width*height)
	if noData != 0 {
		for i := range data {
			data[i] = noData
		}
	}
	return &Grid{
		Width:     width,
		Height:    height,
		Transform: tr,
		CRS:       crs,
		NoData:    noData,
		Data:      data,
	}
}

// Validate checks the grid invariants: positive dimensions, a usable
// transform, a registered CRS, and a backing array matching the declared
// shape. Every spatial operation validates its inputs first.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil grid", ErrInvalidGrid)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidGrid, g.Width, g.Height)
	}
	if len(g.Data) != g.Width*g.Height {
		return fmt.Errorf("%w: %d cells for %dx%d grid", ErrInvalidGrid, len(g.Data), g.Width, g.Height)
	}
	if g.Transform.PixelWidth == 0 || g.Transform.PixelHeight == 0 {
		return fmt.Errorf("%w: zero pixel size", ErrInvalidGrid)
	}
	if g.CRS == 0 {
		return fmt.Errorf("%w: missing CRS", ErrInvalidGrid)
	}
	return nil
}

// Value returns the cell at (col, row). Callers must stay in bounds.
func (g *Grid) Value(col, row int) float64 {
	return g.Data[row*g.Width+col]
}

// SetValue writes the cell at (col, row).
func (g *Grid) SetValue(col, row int, v float64) {
	g.Data[row*g.Width+col] = v
}

// IsNoData reports whether v is the grid's nodata sentinel. NaN sentinels
// compare correctly.
func (g *Grid) IsNoData(v float64) bool {
	if math.IsNaN(g.NoData) {
		return math.IsNaN(v)
	}
	return v == g.NoData
}

// CellCenter returns the world coordinates of a cell's centre point.
func (g *Grid) CellCenter(col, row int) (x, y float64) {
	return g.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
}

// Bounds returns the grid's extent in world coordinates. All four
// corners are folded in so rotated geotransforms get a correct box, not
// just north-up ones.
func (g *Grid) Bounds() geo.Bounds {
	w, h := float64(g.Width), float64(g.Height)
	b := geo.Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, corner := range [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		x, y := g.Transform.Apply(corner[0], corner[1])
		b.MinX = math.Min(b.MinX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxX = math.Max(b.MaxX, x)
		b.MaxY = math.Max(b.MaxY, y)
	}
	return b
}

// PixelArea is the ground area of one cell in squared CRS units.
func (g *Grid) PixelArea() float64 {
	return g.Transform.PixelArea()
}

// SameShape reports whether two grids have identical pixel dimensions.
func (g *Grid) SameShape(o *Grid) bool {
	return g.Width == o.Width && g.Height == o.Height
}

// clone copies the grid metadata and allocates a fresh data array filled
// with nodata; callers copy or rewrite the cells they need.
func (g *Grid) clone() *Grid {
	return New(g.Width, g.Height, g.Transform, g.CRS, g.NoData)
}
