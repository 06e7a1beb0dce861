package raster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Histogram counts cells per integer class code, restricted to codes.
// Nodata cells and values outside codes are ignored, so the result is a
// sparse mapping: an absent key means zero cells, not missing data.
// Cell values are rounded to the nearest integer before lookup because
// class rasters travel as floats.
func Histogram(g *Grid, codes map[int]struct{}) map[int]int64 {
	counts := make(map[int]int64)
	for _, v := range g.Data {
		if g.IsNoData(v) {
			continue
		}
		code := int(math.Round(v))
		if _, ok := codes[code]; !ok {
			continue
		}
		counts[code]++
	}
	return counts
}

// AccumulateArea converts a class histogram to ground area in squared
// CRS units (square metres for projected SFMS grids). When pixelArea is
// zero or negative the grid's own pixel area is used.
func AccumulateArea(g *Grid, codes map[int]struct{}, pixelArea float64) map[int]float64 {
	if pixelArea <= 0 {
		pixelArea = g.PixelArea()
	}
	areas := make(map[int]float64)
	for code, count := range Histogram(g, codes) {
		areas[code] = float64(count) * pixelArea
	}
	return areas
}

// ClassPair keys a joint count of a class-raster code against a
// companion-raster code for the same cell.
type ClassPair struct {
	Class     int
	Companion int
}

// CrossHistogram jointly counts cells by (class code, companion code).
// Both grids must share the same shape, which is guaranteed when the
// companion has been aligned onto the class grid. A cell contributes
// only when both rasters carry data there.
func CrossHistogram(class, companion *Grid) (map[ClassPair]int64, error) {
	if !class.SameShape(companion) {
		return nil, ErrShapeMismatch
	}
	counts := make(map[ClassPair]int64)
	for i, v := range class.Data {
		w := companion.Data[i]
		if class.IsNoData(v) || companion.IsNoData(w) {
			continue
		}
		counts[ClassPair{Class: int(math.Round(v)), Companion: int(math.Round(w))}]++
	}
	return counts, nil
}

// MaskEqual keeps values cells whose classes cell rounds to code and
// blanks the rest to nodata. Both grids must share the same shape. Used
// to restrict a continuous raster (elevation) to one threshold band
// before summarizing it.
func MaskEqual(values, classes *Grid, code int) (*Grid, error) {
	if !values.SameShape(classes) {
		return nil, ErrShapeMismatch
	}
	out := values.clone()
	copy(out.Data, values.Data)
	for i, c := range classes.Data {
		if classes.IsNoData(c) || int(math.Round(c)) != code {
			out.Data[i] = out.NoData
		}
	}
	return out, nil
}

// Distribution captures the five-number summary of a clipped continuous
// raster (elevation, TPI source values).
type Distribution struct {
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe computes the five-number summary over all non-zero,
// non-nodata cells. When every cell is nodata or zero, all statistics
// are zero rather than NaN. Zero doubles as "no usable cells" here,
// matching the persisted advisory semantics for zones the raster does
// not cover.
func Describe(g *Grid) Distribution {
	values := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if g.IsNoData(v) || v == 0 {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return Distribution{}
	}

	sort.Float64s(values)
	return Distribution{
		Min:    values[0],
		Q25:    stat.Quantile(0.25, stat.Empirical, values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		Q75:    stat.Quantile(0.75, stat.Empirical, values, nil),
		Max:    values[len(values)-1],
	}
}
