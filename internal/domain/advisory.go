package domain

import "time"

// HFIThresholds are the classification boundaries, in kW/m, applied to
// the continuous HFI raster. Band ids are 1-based positions in this
// slice; see the package documentation for the interval semantics.
var HFIThresholds = []float64{4000, 10000}

// ThresholdBand is a discrete HFI severity class derived from binning
// the continuous surface.
type ThresholdBand struct {
	ID          int    `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

// FuelType is one FBP fuel-type raster code with its display metadata.
type FuelType struct {
	Code        int    `db:"code"`
	Abbrev      string `db:"abbrev"`
	Description string `db:"description"`
}

// nonFuelBoundary is the first non-combustible code (water, rock, urban).
const nonFuelBoundary = 99

// Combustible reports whether the fuel type burns: 0 < code < 99.
func (f FuelType) Combustible() bool {
	return CombustibleCode(f.Code)
}

// CombustibleCode applies the combustible filter to a raw raster code.
func CombustibleCode(code int) bool {
	return code > 0 && code < nonFuelBoundary
}

// TPI class codes in the pre-classified SFMS terrain layer.
const (
	TPIValleyBottom = 1
	TPIMidSlope     = 2
	TPIUpperSlope   = 3
)

// ZoneShape is a fire zone unit polygon's metadata. Geometry is owned by
// the spatial database and fetched separately, reprojected to the raster
// CRS; the pipeline never mutates it.
type ZoneShape struct {
	ID               int64  `db:"id"`
	SourceIdentifier string `db:"source_identifier"`
	Label            string `db:"label"`
}

// HighHFIStat is the elevated/extreme HFI footprint of one zone for one
// threshold band under one run identity.
type HighHFIStat struct {
	ZoneID      int64     `db:"advisory_shape_id"`
	ThresholdID int       `db:"threshold_id"`
	RunID       int64     `db:"run_identity_id"`
	AreaM2      float64   `db:"area_m2"`
	CreatedAt   time.Time `db:"created_at"`
}

// FuelTypeAreaStat is one zone's area of a single fuel type at or above
// one HFI threshold band.
type FuelTypeAreaStat struct {
	ZoneID       int64     `db:"advisory_shape_id"`
	FuelTypeCode int       `db:"fuel_type_code"`
	ThresholdID  int       `db:"threshold_id"`
	RunID        int64     `db:"run_identity_id"`
	AreaM2       float64   `db:"area_m2"`
	CreatedAt    time.Time `db:"created_at"`
}

// ElevationStat is the five-number elevation summary of the cells inside
// one zone that fall in one HFI threshold band.
type ElevationStat struct {
	ZoneID      int64     `db:"advisory_shape_id"`
	ThresholdID int       `db:"threshold_id"`
	RunID       int64     `db:"run_identity_id"`
	Minimum     float64   `db:"minimum"`
	Quartile25  float64   `db:"quartile_25"`
	Median      float64   `db:"median"`
	Quartile75  float64   `db:"quartile_75"`
	Maximum     float64   `db:"maximum"`
	CreatedAt   time.Time `db:"created_at"`
}

// TPIStat is one zone's pixel count per topographic position class;
// PixelSizeM lets consumers convert counts to areas.
type TPIStat struct {
	ZoneID         int64     `db:"advisory_shape_id"`
	RunID          int64     `db:"run_identity_id"`
	ValleyBottomPx int64     `db:"valley_bottom_px"`
	MidSlopePx     int64     `db:"mid_slope_px"`
	UpperSlopePx   int64     `db:"upper_slope_px"`
	PixelSizeM     float64   `db:"pixel_size_m"`
	CreatedAt      time.Time `db:"created_at"`
}

// ElevatedPercentage derives the advisory's headline number: the share
// of a zone's combustible area burning at or above a threshold. A zone
// with no combustible area reports zero rather than dividing by zero.
func ElevatedPercentage(elevatedAreaM2, combustibleAreaM2 float64) float64 {
	if combustibleAreaM2 <= 0 {
		return 0
	}
	p := elevatedAreaM2 / combustibleAreaM2 * 100
	if p > 100 {
		return 100
	}
	return p
}
