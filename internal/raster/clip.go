package raster

import (
	"fmt"
	"math"

	"github.com/bcgov/sfms-advisory/internal/geo"
)

// Clip crops the grid to the minimal pixel window covering the cutline's
// bounding box and sets every cell whose centre falls outside the cutline
// to nodata. The cutline must be supplied in the grid's CRS; the
// orchestrator reprojects geometries beforehand.
//
// Clip is pure: it never mutates its inputs and may be called once per
// zone against the same raster. A cutline wholly outside the raster
// extent fails with ErrEmptyClip, which callers handle by skipping the
// zone, not by aborting the run.
func Clip(g *Grid, cutline geo.MultiPolygon) (*Grid, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(cutline) == 0 {
		return nil, fmt.Errorf("%w: empty cutline geometry", ErrEmptyClip)
	}

	window := cutline.Bounds().Intersect(g.Bounds())
	if window.Empty() {
		return nil, ErrEmptyClip
	}

	c0, r0, c1, r1, err := pixelWindow(g, window)
	if err != nil {
		return nil, err
	}
	if c0 >= c1 || r0 >= r1 {
		return nil, ErrEmptyClip
	}

	ox, oy := g.Transform.Apply(float64(c0), float64(r0))
	tr := g.Transform
	tr.OriginX = ox
	tr.OriginY = oy

	out := New(c1-c0, r1-r0, tr, g.CRS, g.NoData)
	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			x, y := g.CellCenter(col, row)
			if !cutline.Contains(geo.Point{X: x, Y: y}) {
				continue
			}
			out.SetValue(col-c0, row-r0, g.Value(col, row))
		}
	}
	return out, nil
}

// pixelWindow converts a world-space box to an inclusive-exclusive pixel
// window clamped to the grid. Corner order is normalized because a
// negative pixel height flips rows relative to world Y.
func pixelWindow(g *Grid, b geo.Bounds) (c0, r0, c1, r1 int, err error) {
	colA, rowA, err := g.Transform.Invert(b.MinX, b.MinY)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	colB, rowB, err := g.Transform.Invert(b.MaxX, b.MaxY)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	c0 = clamp(int(math.Floor(math.Min(colA, colB))), 0, g.Width)
	c1 = clamp(int(math.Ceil(math.Max(colA, colB))), 0, g.Width)
	r0 = clamp(int(math.Floor(math.Min(rowA, rowB))), 0, g.Height)
	r1 = clamp(int(math.Ceil(math.Max(rowA, rowB))), 0, g.Height)
	return c0, r0, c1, r1, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
