package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeSet(codes ...int) map[int]struct{} {
	s := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func TestHistogram_SparseAndFiltered(t *testing.T) {
	g := testGrid(t, 3, 2, 2000, []float64{1, 1, 2, -9999, 99, 1})

	counts := Histogram(g, codeSet(1, 2, 3))

	assert.Equal(t, int64(3), counts[1])
	assert.Equal(t, int64(1), counts[2])
	_, present := counts[3]
	assert.False(t, present, "absent key means zero, not missing data")
	_, present = counts[99]
	assert.False(t, present, "codes outside the set are ignored")
}

func TestAccumulateArea_FromPixelSize(t *testing.T) {
	g := testGrid(t, 2, 2, 2000, []float64{1, 1, 2, -9999})

	areas := AccumulateArea(g, codeSet(1, 2), 0)

	assert.InDelta(t, 8_000_000, areas[1], 1e-6) // 2 cells * 2000*2000
	assert.InDelta(t, 4_000_000, areas[2], 1e-6)
}

func TestAccumulateArea_ExplicitPixelArea(t *testing.T) {
	g := testGrid(t, 2, 1, 2000, []float64{5, 5})

	areas := AccumulateArea(g, codeSet(5), 100)
	assert.InDelta(t, 200, areas[5], 1e-9)
}

func TestAccumulateArea_Conservation(t *testing.T) {
	// A raster fully covered by one zone with no nodata: summed class
	// areas equal the raster's total footprint.
	g := testGrid(t, 4, 4, 1000, []float64{
		1, 1, 2, 2,
		1, 3, 2, 1,
		3, 3, 1, 2,
		2, 1, 3, 3,
	})

	out, err := Clip(g, rectCutline(-100, -100, 4100, 4100))
	require.NoError(t, err)

	areas := AccumulateArea(out, codeSet(1, 2, 3), 0)
	var total float64
	for _, a := range areas {
		total += a
	}
	assert.InDelta(t, 16*1000*1000, total, 1e-6)
}

func TestCrossHistogram_JointCounts(t *testing.T) {
	class := testGrid(t, 3, 2, 2000, []float64{1, 1, 2, 2, -9999, 1})
	fuel := testGrid(t, 3, 2, 2000, []float64{7, 7, 7, 12, 12, -9999})

	counts, err := CrossHistogram(class, fuel)
	require.NoError(t, err)

	assert.Equal(t, int64(2), counts[ClassPair{Class: 1, Companion: 7}])
	assert.Equal(t, int64(1), counts[ClassPair{Class: 2, Companion: 7}])
	assert.Equal(t, int64(1), counts[ClassPair{Class: 2, Companion: 12}])
	// Cells where either raster is nodata contribute nothing.
	assert.Len(t, counts, 3)
}

func TestCrossHistogram_ShapeMismatch(t *testing.T) {
	a := testGrid(t, 2, 2, 2000, []float64{1, 1, 1, 1})
	b := testGrid(t, 3, 2, 2000, []float64{1, 1, 1, 1, 1, 1})

	_, err := CrossHistogram(a, b)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestMaskEqual_KeepsMatchingCells(t *testing.T) {
	elev := testGrid(t, 2, 2, 2000, []float64{120, 340, 560, 780})
	class := testGrid(t, 2, 2, 2000, []float64{1, 2, 1, -9999})

	out, err := MaskEqual(elev, class, 1)
	require.NoError(t, err)

	assert.Equal(t, 120.0, out.Data[0])
	assert.True(t, out.IsNoData(out.Data[1]))
	assert.Equal(t, 560.0, out.Data[2])
	assert.True(t, out.IsNoData(out.Data[3]))
	// Source is untouched.
	assert.Equal(t, 340.0, elev.Data[1])
}

func TestDescribe_FiveNumberSummary(t *testing.T) {
	g := testGrid(t, 4, 2, 2000, []float64{100, 200, 300, 400, 500, 600, 700, 800})

	d := Describe(g)

	assert.Equal(t, 100.0, d.Min)
	assert.Equal(t, 800.0, d.Max)
	assert.Equal(t, 200.0, d.Q25)
	assert.Equal(t, 400.0, d.Median)
	assert.Equal(t, 600.0, d.Q75)
}

func TestDescribe_IgnoresNoDataAndZero(t *testing.T) {
	g := testGrid(t, 3, 2, 2000, []float64{-9999, 0, 50, 0, -9999, 150})

	d := Describe(g)
	assert.Equal(t, 50.0, d.Min)
	assert.Equal(t, 150.0, d.Max)
}

func TestDescribe_AllEmptyYieldsZeros(t *testing.T) {
	// Deliberately preserved behavior: an uncovered zone reports all-zero
	// statistics rather than NaN or null.
	g := testGrid(t, 2, 2, 2000, []float64{-9999, -9999, 0, 0})

	d := Describe(g)
	assert.Equal(t, Distribution{}, d)
	assert.Zero(t, d.Min)
	assert.Zero(t, d.Q25)
	assert.Zero(t, d.Median)
	assert.Zero(t, d.Q75)
	assert.Zero(t, d.Max)
}
