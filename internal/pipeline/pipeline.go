// Package pipeline computes per-fire-zone advisory statistics for one
// SFMS run: classified HFI footprints, fuel-type area breakdowns,
// elevation summaries, and topographic position counts, persisted
// through the repository port and deduplicated by run identity.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bcgov/sfms-advisory/internal/domain"
	"github.com/bcgov/sfms-advisory/internal/observability"
	"github.com/bcgov/sfms-advisory/internal/raster"
)

// Result reports what one invocation persisted, keyed for the
// completion event.
type Result struct {
	RunID     int64
	RowCounts map[domain.StatFamily]int
}

// Pipeline orchestrates the four statistic families of one run.
type Pipeline struct {
	repo      Repository
	source    RasterSource
	logger    *slog.Logger
	metrics   *observability.Metrics
	keyPrefix string
}

// New creates a Pipeline with its persistence and raster ports.
func New(repo Repository, source RasterSource, logger *slog.Logger, metrics *observability.Metrics, keyPrefix string) *Pipeline {
	return &Pipeline{
		repo:      repo,
		source:    source,
		logger:    logger,
		metrics:   metrics,
		keyPrefix: keyPrefix,
	}
}

// invocation carries the per-run state: the resolved identity, derived
// raster keys, the run-scoped raster cache, and reference data fetched
// once up front. The classified HFI grid is computed lazily because
// three of the four families need it and the fourth does not.
type invocation struct {
	identity domain.RunIdentity
	keys     RasterKeys
	cache    *CachedSource
	zones    []domain.ZoneShape
	bands    []domain.ThresholdBand
	fuels    []domain.FuelType

	classified    *raster.Grid
	classifiedErr error
}

// Execute runs every statistic family for the given identity. Families
// are independent: a failure in one is collected and the rest still
// run, so a bad static layer cannot block the high-HFI advisory. The
// returned row counts cover only families computed by this invocation;
// families skipped by the already-computed guard report nothing.
func (p *Pipeline) Execute(ctx context.Context, identity domain.RunIdentity) (Result, error) {
	runID, err := p.repo.ResolveOrCreateRunIdentity(ctx, identity)
	if err != nil {
		return Result{}, fmt.Errorf("resolve run identity: %w", err)
	}
	identity.ID = runID

	zones, err := p.repo.GetZoneShapes(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load zone shapes: %w", err)
	}
	bands, err := p.repo.GetThresholdBands(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load threshold bands: %w", err)
	}
	fuels, err := p.repo.GetFuelTypes(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load fuel types: %w", err)
	}

	cache := NewCachedSource(p.source)
	defer cache.Release()

	inv := &invocation{
		identity: identity,
		keys:     DeriveKeys(p.keyPrefix, identity),
		cache:    cache,
		zones:    zones,
		bands:    bands,
		fuels:    fuels,
	}

	families := []struct {
		family  domain.StatFamily
		compute func(ctx context.Context, inv *invocation) (int, error)
	}{
		{domain.StatFamilyHighHFI, p.computeHighHFI},
		{domain.StatFamilyFuelTypeArea, p.computeFuelTypeAreas},
		{domain.StatFamilyElevation, p.computeElevationStats},
		{domain.StatFamilyTPI, p.computeTPIStats},
	}

	result := Result{RunID: runID, RowCounts: make(map[domain.StatFamily]int)}
	var errs []error
	for _, f := range families {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rows, skipped, err := p.runFamily(ctx, inv, f.family, f.compute)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !skipped {
			result.RowCounts[f.family] = rows
		}
	}
	return result, errors.Join(errs...)
}

// runFamily applies the already-computed guard, times the computation,
// and records the outcome metrics for one statistic family.
func (p *Pipeline) runFamily(ctx context.Context, inv *invocation, family domain.StatFamily, compute func(context.Context, *invocation) (int, error)) (int, bool, error) {
	exists, err := p.repo.StatsExist(ctx, family, inv.identity.ID)
	if err != nil {
		return 0, false, fmt.Errorf("%s: existence check: %w", family, err)
	}
	if exists {
		// Normal fast path for re-triggered jobs, not an error.
		p.logger.Info("statistics already computed, skipping",
			"family", family, "run", inv.identity.String())
		p.metrics.RunsSkipped.WithLabelValues(string(family)).Inc()
		return 0, true, nil
	}

	start := time.Now()
	rows, err := compute(ctx, inv)
	if err != nil {
		p.metrics.RunsFailed.WithLabelValues(string(family)).Inc()
		return rows, false, fmt.Errorf("%s: %w", family, err)
	}

	p.metrics.RunDuration.WithLabelValues(string(family)).Observe(time.Since(start).Seconds())
	p.metrics.RunsCompleted.WithLabelValues(string(family)).Inc()
	p.logger.Info("statistics computed",
		"family", family, "run", inv.identity.String(), "rows", rows,
		"duration", time.Since(start))
	return rows, false, nil
}

// classifiedHFI loads the run's HFI raster, applies the snow mask when
// one was uploaded, and bins the surface into threshold bands. The
// result is memoized on the invocation; families run sequentially so no
// locking is needed. Any failure here is fatal for the families that
// depend on it, before anything is persisted.
func (inv *invocation) classifiedHFI(ctx context.Context, logger *slog.Logger) (*raster.Grid, error) {
	if inv.classified != nil || inv.classifiedErr != nil {
		return inv.classified, inv.classifiedErr
	}
	inv.classified, inv.classifiedErr = inv.buildClassifiedHFI(ctx, logger)
	return inv.classified, inv.classifiedErr
}

func (inv *invocation) buildClassifiedHFI(ctx context.Context, logger *slog.Logger) (*raster.Grid, error) {
	hfi, err := inv.cache.LoadRaster(ctx, inv.keys.HFI)
	if err != nil {
		return nil, fmt.Errorf("load hfi raster %q: %w", inv.keys.HFI, err)
	}

	mask, err := inv.cache.LoadRaster(ctx, inv.keys.Snow)
	switch {
	case errors.Is(err, domain.ErrRasterNotFound):
		// No snow layer for this day. Classify unmasked.
		logger.Debug("no snow mask uploaded", "key", inv.keys.Snow)
		return raster.Classify(hfi, domain.HFIThresholds)
	case err != nil:
		return nil, fmt.Errorf("load snow mask %q: %w", inv.keys.Snow, err)
	}

	alignedMask, err := raster.Align(mask, hfi, raster.Nearest)
	if err != nil {
		return nil, fmt.Errorf("align snow mask: %w", err)
	}
	return raster.ClassifyMasked(hfi, alignedMask, domain.HFIThresholds)
}
