package raster

import (
	"fmt"
)

// Classify bins a continuous raster into integer class codes using
// half-open threshold intervals: cells below thresholds[0] become 0,
// cells in [thresholds[k-1], thresholds[k]) become band k, and the top
// band is unbounded above. Nodata cells become 0 (background). The result
// is a fresh grid with nodata 0, so downstream accumulation can treat
// zero uniformly as "no contribution".
//
// Thresholds must be non-empty and strictly increasing.
func Classify(g *Grid, thresholds []float64) (*Grid, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := validateThresholds(thresholds); err != nil {
		return nil, err
	}

	out := New(g.Width, g.Height, g.Transform, g.CRS, 0)
	for i, v := range g.Data {
		if g.IsNoData(v) {
			continue
		}
		out.Data[i] = float64(classifyValue(v, thresholds))
	}
	return out, nil
}

// ClassifyMasked classifies after suppressing cells covered by a binary
// mask (snow coverage: 0 = suppressed, 1 = clear). The mask must already
// be aligned to the source grid; Align it first. Mask nodata is treated
// as clear, since absence of snow information must not suppress fire
// behaviour statistics.
func ClassifyMasked(g, mask *Grid, thresholds []float64) (*Grid, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if !g.SameShape(mask) {
		return nil, fmt.Errorf("%w: source %dx%d, mask %dx%d",
			ErrShapeMismatch, g.Width, g.Height, mask.Width, mask.Height)
	}

	classified, err := Classify(g, thresholds)
	if err != nil {
		return nil, err
	}
	for i := range classified.Data {
		mv := mask.Data[i]
		if mask.IsNoData(mv) {
			continue
		}
		classified.Data[i] *= mv
	}
	return classified, nil
}

func validateThresholds(thresholds []float64) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("%w: no boundaries", ErrInvalidThresholds)
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return fmt.Errorf("%w: boundaries must be strictly increasing, got %v",
				ErrInvalidThresholds, thresholds)
		}
	}
	return nil
}

// classifyValue returns the band index for v: 0 below the first boundary,
// k for [thresholds[k-1], thresholds[k]), len(thresholds) at or above the
// last boundary.
func classifyValue(v float64, thresholds []float64) int {
	band := 0
	for _, t := range thresholds {
		if v < t {
			break
		}
		band++
	}
	return band
}
