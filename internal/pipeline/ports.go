package pipeline

import (
	"context"

	"github.com/bcgov/sfms-advisory/internal/domain"
	"github.com/bcgov/sfms-advisory/internal/geo"
	"github.com/bcgov/sfms-advisory/internal/raster"
)

// Repository is the persistence port for zone geometry, reference data,
// run identities, and computed statistics.
type Repository interface {
	GetZoneShapes(ctx context.Context) ([]domain.ZoneShape, error)
	GetZoneCutline(ctx context.Context, zoneID int64, targetCRS geo.CRS) (geo.MultiPolygon, error)
	GetFuelTypes(ctx context.Context) ([]domain.FuelType, error)
	GetThresholdBands(ctx context.Context) ([]domain.ThresholdBand, error)

	ResolveOrCreateRunIdentity(ctx context.Context, identity domain.RunIdentity) (int64, error)
	StatsExist(ctx context.Context, family domain.StatFamily, runID int64) (bool, error)

	SaveHighHFIStats(ctx context.Context, rows []domain.HighHFIStat) error
	SaveFuelTypeAreaStats(ctx context.Context, rows []domain.FuelTypeAreaStat) error
	SaveElevationStats(ctx context.Context, rows []domain.ElevationStat) error
	SaveTPIStats(ctx context.Context, rows []domain.TPIStat) error
}

// RasterSource loads rasters from object storage by key. Missing keys
// surface as domain.ErrRasterNotFound, which is an expected condition
// for optional inputs such as the snow mask.
type RasterSource interface {
	LoadRaster(ctx context.Context, key string) (*raster.Grid, error)
}

// TriggerSource delivers run trigger messages from the broker.
type TriggerSource interface {
	Fetch(ctx context.Context) (domain.RawMessage, error)
}

// CompletionPublisher announces finished runs to downstream consumers.
type CompletionPublisher interface {
	PublishCompletion(ctx context.Context, completed domain.RunCompleted) error
}
