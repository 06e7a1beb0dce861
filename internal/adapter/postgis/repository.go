// Package postgis implements the pipeline's persistence port against the
// spatial database: fire zone geometries, run identities, and the four
// advisory statistic tables.
package postgis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bcgov/sfms-advisory/internal/domain"
	"github.com/bcgov/sfms-advisory/internal/geo"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// Repository is the sqlx-backed persistence adapter.
// It implements pipeline.Repository.
type Repository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Connect opens and pings the spatial database.
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to spatial database: %w", err)
	}
	return db, nil
}

// New wraps an open database handle.
func New(db *sqlx.DB, logger *slog.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// GetZoneShapes returns every fire zone unit's metadata, geometry excluded.
func (r *Repository) GetZoneShapes(ctx context.Context) ([]domain.ZoneShape, error) {
	const query = `
		SELECT id, source_identifier, label
		FROM advisory_shapes
		ORDER BY id`

	var zones []domain.ZoneShape
	if err := r.db.SelectContext(ctx, &zones, query); err != nil {
		return nil, fmt.Errorf("query zone shapes: %w", err)
	}
	return zones, nil
}

// GetZoneCutline fetches one zone's geometry reprojected server-side to
// the raster's CRS, delivered as GeoJSON.
func (r *Repository) GetZoneCutline(ctx context.Context, zoneID int64, targetCRS geo.CRS) (geo.MultiPolygon, error) {
	const query = `
		SELECT ST_AsGeoJSON(ST_Transform(geom, $2))
		FROM advisory_shapes
		WHERE id = $1`

	var geojson []byte
	err := r.db.GetContext(ctx, &geojson, query, zoneID, int(targetCRS))
	if err != nil {
		return nil, fmt.Errorf("query cutline for zone %d: %w", zoneID, err)
	}
	mp, err := geo.UnmarshalGeoJSON(geojson)
	if err != nil {
		return nil, fmt.Errorf("cutline for zone %d: %w", zoneID, err)
	}
	return mp, nil
}

// ResolveOrCreateRunIdentity upserts the identity triple and returns its
// durable id. Inserting a duplicate triple is a no-op; concurrent
// resolution for the same triple is race-safe because the conflict
// target is the unique index itself.
func (r *Repository) ResolveOrCreateRunIdentity(ctx context.Context, identity domain.RunIdentity) (int64, error) {
	const insert = `
		INSERT INTO advisory_run_identities (run_type, run_datetime, for_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_type, run_datetime, for_date) DO NOTHING
		RETURNING id`

	var id int64
	err := r.db.QueryRowxContext(ctx, insert,
		string(identity.RunType), identity.RunDatetime, identity.ForDate).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("insert run identity: %w", err)
	}

	// Conflict path: the triple already exists, fetch its id.
	const query = `
		SELECT id FROM advisory_run_identities
		WHERE run_type = $1 AND run_datetime = $2 AND for_date = $3`
	err = r.db.GetContext(ctx, &id, query,
		string(identity.RunType), identity.RunDatetime, identity.ForDate)
	if err != nil {
		return 0, fmt.Errorf("resolve run identity: %w", err)
	}
	return id, nil
}

// statTables maps each statistic family to its output table. Families
// are guarded and persisted independently.
var statTables = map[domain.StatFamily]string{
	domain.StatFamilyHighHFI:      "advisory_high_hfi",
	domain.StatFamilyFuelTypeArea: "advisory_fuel_type_areas",
	domain.StatFamilyElevation:    "advisory_elevation_stats",
	domain.StatFamilyTPI:          "advisory_tpi_stats",
}

// StatsExist reports whether any rows exist for the family under the
// given run identity. Callers use it to skip already-computed work.
func (r *Repository) StatsExist(ctx context.Context, family domain.StatFamily, runID int64) (bool, error) {
	table, ok := statTables[family]
	if !ok {
		return false, fmt.Errorf("unknown statistic family %q", family)
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE run_identity_id = $1)`, table)
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, runID); err != nil {
		return false, fmt.Errorf("check %s rows for run %d: %w", family, runID, err)
	}
	return exists, nil
}

// SaveHighHFIStats writes one zone's threshold rows in a single
// transaction, so readers never observe a zone with some-but-not-all
// threshold rows for a run identity.
func (r *Repository) SaveHighHFIStats(ctx context.Context, rows []domain.HighHFIStat) error {
	const insert = `
		INSERT INTO advisory_high_hfi
			(advisory_shape_id, threshold_id, run_identity_id, area_m2, created_at)
		VALUES
			(:advisory_shape_id, :threshold_id, :run_identity_id, :area_m2, :created_at)`
	return r.saveBatch(ctx, insert, rows, len(rows))
}

// SaveFuelTypeAreaStats writes one zone's fuel-type/threshold rows in a
// single transaction.
func (r *Repository) SaveFuelTypeAreaStats(ctx context.Context, rows []domain.FuelTypeAreaStat) error {
	const insert = `
		INSERT INTO advisory_fuel_type_areas
			(advisory_shape_id, fuel_type_code, threshold_id, run_identity_id, area_m2, created_at)
		VALUES
			(:advisory_shape_id, :fuel_type_code, :threshold_id, :run_identity_id, :area_m2, :created_at)`
	return r.saveBatch(ctx, insert, rows, len(rows))
}

// SaveElevationStats writes one zone's elevation rows in a single
// transaction.
func (r *Repository) SaveElevationStats(ctx context.Context, rows []domain.ElevationStat) error {
	const insert = `
		INSERT INTO advisory_elevation_stats
			(advisory_shape_id, threshold_id, run_identity_id,
			 minimum, quartile_25, median, quartile_75, maximum, created_at)
		VALUES
			(:advisory_shape_id, :threshold_id, :run_identity_id,
			 :minimum, :quartile_25, :median, :quartile_75, :maximum, :created_at)`
	return r.saveBatch(ctx, insert, rows, len(rows))
}

// SaveTPIStats writes one zone's TPI row.
func (r *Repository) SaveTPIStats(ctx context.Context, rows []domain.TPIStat) error {
	const insert = `
		INSERT INTO advisory_tpi_stats
			(advisory_shape_id, run_identity_id,
			 valley_bottom_px, mid_slope_px, upper_slope_px, pixel_size_m, created_at)
		VALUES
			(:advisory_shape_id, :run_identity_id,
			 :valley_bottom_px, :mid_slope_px, :upper_slope_px, :pixel_size_m, :created_at)`
	return r.saveBatch(ctx, insert, rows, len(rows))
}

func (r *Repository) saveBatch(ctx context.Context, insert string, rows any, count int) error {
	if count == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stats batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.NamedExecContext(ctx, insert, rows); err != nil {
		return fmt.Errorf("insert stats batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stats batch: %w", err)
	}
	return nil
}

// GetFuelTypes returns the fuel type registry ordered by raster code.
func (r *Repository) GetFuelTypes(ctx context.Context) ([]domain.FuelType, error) {
	const query = `SELECT code, abbrev, description FROM fuel_types ORDER BY code`

	var fuelTypes []domain.FuelType
	if err := r.db.SelectContext(ctx, &fuelTypes, query); err != nil {
		return nil, fmt.Errorf("query fuel types: %w", err)
	}
	return fuelTypes, nil
}

// GetThresholdBands returns the HFI threshold bands ordered by id, so
// band k corresponds to the k-th classification boundary.
func (r *Repository) GetThresholdBands(ctx context.Context) ([]domain.ThresholdBand, error) {
	const query = `SELECT id, name, description FROM threshold_bands ORDER BY id`

	var bands []domain.ThresholdBand
	if err := r.db.SelectContext(ctx, &bands, query); err != nil {
		return nil, fmt.Errorf("query threshold bands: %w", err)
	}
	return bands, nil
}
