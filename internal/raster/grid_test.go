package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcgov/sfms-advisory/internal/geo"
)

func TestTransform_ApplyInvertRoundTrip(t *testing.T) {
	tr := northUp(1_000_000, 500_000, 2000)

	x, y := tr.Apply(3.5, 1.5)
	assert.Equal(t, 1_007_000.0, x)
	assert.Equal(t, 497_000.0, y)

	col, row, err := tr.Invert(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, col, 1e-12)
	assert.InDelta(t, 1.5, row, 1e-12)
}

func TestTransform_InvertSingular(t *testing.T) {
	_, _, err := Transform{}.Invert(0, 0)
	assert.ErrorIs(t, err, ErrInvalidGrid)
}

func TestTransform_PixelArea(t *testing.T) {
	tr := northUp(0, 0, 2000)
	assert.Equal(t, 4_000_000.0, tr.PixelArea(), "negative pixel height must not produce negative area")
}

func TestGrid_Bounds(t *testing.T) {
	g := New(4, 2, northUp(100, 5000, 1000), geo.EPSG3005, -9999)

	b := g.Bounds()
	assert.Equal(t, geo.Bounds{MinX: 100, MinY: 3000, MaxX: 4100, MaxY: 5000}, b)
}

func TestGrid_BoundsRotated(t *testing.T) {
	// Sheared transform: the extreme X values sit on the off-diagonal
	// corners, not the (0,0)/(W,H) pair.
	tr := Transform{
		OriginX: 0, PixelWidth: 1000, RotationX: -500,
		OriginY: 0, RotationY: 0, PixelHeight: -1000,
	}
	g := New(2, 2, tr, geo.EPSG3005, -9999)

	b := g.Bounds()
	assert.Equal(t, geo.Bounds{MinX: -1000, MinY: -2000, MaxX: 2000, MaxY: 0}, b)
}

func TestGrid_Validate(t *testing.T) {
	valid := New(2, 2, northUp(0, 4000, 2000), geo.EPSG3005, -9999)
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		grid *Grid
	}{
		{"nil grid", nil},
		{"zero dimensions", &Grid{Transform: northUp(0, 0, 1), CRS: geo.EPSG3005}},
		{"data shape mismatch", &Grid{Width: 2, Height: 2, Data: []float64{1},
			Transform: northUp(0, 0, 1), CRS: geo.EPSG3005}},
		{"zero pixel size", &Grid{Width: 1, Height: 1, Data: []float64{1}, CRS: geo.EPSG3005}},
		{"missing crs", &Grid{Width: 1, Height: 1, Data: []float64{1}, Transform: northUp(0, 0, 1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.grid.Validate(), ErrInvalidGrid)
		})
	}
}

func TestGrid_NewFillsNoData(t *testing.T) {
	g := New(2, 2, northUp(0, 4000, 2000), geo.EPSG3005, -9999)
	for _, v := range g.Data {
		assert.Equal(t, -9999.0, v)
	}
}

func TestGrid_IsNoDataNaN(t *testing.T) {
	g := New(1, 1, northUp(0, 1000, 1000), geo.EPSG3005, math.NaN())
	assert.True(t, g.IsNoData(math.NaN()))
	assert.False(t, g.IsNoData(0))
}

func TestGrid_CellCenter(t *testing.T) {
	g := New(2, 2, northUp(0, 4000, 2000), geo.EPSG3005, -9999)

	x, y := g.CellCenter(0, 0)
	assert.Equal(t, 1000.0, x)
	assert.Equal(t, 3000.0, y)

	x, y = g.CellCenter(1, 1)
	assert.Equal(t, 3000.0, x)
	assert.Equal(t, 1000.0, y)
}
