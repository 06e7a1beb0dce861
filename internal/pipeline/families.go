package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/bcgov/sfms-advisory/internal/domain"
	"github.com/bcgov/sfms-advisory/internal/geo"
	"github.com/bcgov/sfms-advisory/internal/raster"
)

// computeHighHFI accumulates the elevated and extreme HFI footprint of
// every zone: clip the classified raster to the zone cutline, histogram
// the band codes, convert counts to square metres.
func (p *Pipeline) computeHighHFI(ctx context.Context, inv *invocation) (int, error) {
	classified, err := inv.classifiedHFI(ctx, p.logger)
	if err != nil {
		return 0, err
	}
	pixelArea := classified.PixelArea()
	codes := thresholdCodes(inv.bands)
	now := domain.Now()

	total := 0
	for _, zone := range inv.zones {
		clipped, _, ok, err := p.clipZone(ctx, zone, domain.StatFamilyHighHFI, classified)
		if err != nil {
			return total, err
		}
		if !ok {
			continue
		}

		areas := raster.AccumulateArea(clipped, codes, pixelArea)
		rows := make([]domain.HighHFIStat, 0, len(areas))
		for bandID, area := range areas {
			rows = append(rows, domain.HighHFIStat{
				ZoneID:      zone.ID,
				ThresholdID: bandID,
				RunID:       inv.identity.ID,
				AreaM2:      area,
				CreatedAt:   now,
			})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].ThresholdID < rows[j].ThresholdID })

		if err := p.repo.SaveHighHFIStats(ctx, rows); err != nil {
			return total, fmt.Errorf("save zone %s: %w", zone.SourceIdentifier, err)
		}
		total += len(rows)
		p.metrics.ZonesProcessed.WithLabelValues(string(domain.StatFamilyHighHFI)).Inc()
	}
	return total, nil
}

// computeFuelTypeAreas breaks each zone's high-HFI footprint down by
// combustible fuel type: the fuel layer is aligned onto the classified
// grid, then jointly counted per (band, fuel code) inside the cutline.
func (p *Pipeline) computeFuelTypeAreas(ctx context.Context, inv *invocation) (int, error) {
	classified, err := inv.classifiedHFI(ctx, p.logger)
	if err != nil {
		return 0, err
	}
	fuel, err := inv.cache.LoadRaster(ctx, inv.keys.FuelType)
	if err != nil {
		return 0, fmt.Errorf("load fuel type raster %q: %w", inv.keys.FuelType, err)
	}
	alignedFuel, err := raster.Align(fuel, classified, raster.Nearest)
	if err != nil {
		return 0, fmt.Errorf("align fuel type raster: %w", err)
	}

	combustible := make(map[int]struct{}, len(inv.fuels))
	for _, ft := range inv.fuels {
		if ft.Combustible() {
			combustible[ft.Code] = struct{}{}
		}
	}

	pixelArea := classified.PixelArea()
	bandIDs := thresholdCodes(inv.bands)
	now := domain.Now()

	total := 0
	for _, zone := range inv.zones {
		clippedClass, cutline, ok, err := p.clipZone(ctx, zone, domain.StatFamilyFuelTypeArea, classified)
		if err != nil {
			return total, err
		}
		if !ok {
			continue
		}
		clippedFuel, err := raster.Clip(alignedFuel, cutline)
		if err != nil {
			return total, fmt.Errorf("clip fuel layer for zone %s: %w", zone.SourceIdentifier, err)
		}

		counts, err := raster.CrossHistogram(clippedClass, clippedFuel)
		if err != nil {
			return total, err
		}

		rows := make([]domain.FuelTypeAreaStat, 0, len(counts))
		for pair, count := range counts {
			if _, ok := bandIDs[pair.Class]; !ok {
				continue // below every threshold
			}
			if _, ok := combustible[pair.Companion]; !ok {
				continue
			}
			rows = append(rows, domain.FuelTypeAreaStat{
				ZoneID:       zone.ID,
				FuelTypeCode: pair.Companion,
				ThresholdID:  pair.Class,
				RunID:        inv.identity.ID,
				AreaM2:       float64(count) * pixelArea,
				CreatedAt:    now,
			})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].FuelTypeCode != rows[j].FuelTypeCode {
				return rows[i].FuelTypeCode < rows[j].FuelTypeCode
			}
			return rows[i].ThresholdID < rows[j].ThresholdID
		})

		if err := p.repo.SaveFuelTypeAreaStats(ctx, rows); err != nil {
			return total, fmt.Errorf("save zone %s: %w", zone.SourceIdentifier, err)
		}
		total += len(rows)
		p.metrics.ZonesProcessed.WithLabelValues(string(domain.StatFamilyFuelTypeArea)).Inc()

		var combustibleArea, advisoryArea float64
		for _, count := range raster.Histogram(clippedFuel, combustible) {
			combustibleArea += float64(count) * pixelArea
		}
		for _, row := range rows {
			advisoryArea += row.AreaM2
		}
		p.logger.Info("zone advisory coverage",
			"zone", zone.SourceIdentifier,
			"elevated_percent", domain.ElevatedPercentage(advisoryArea, combustibleArea))
	}
	return total, nil
}

// computeElevationStats summarizes the terrain elevation of each zone's
// high-HFI cells: the DEM is interpolated onto the classified grid,
// restricted to one band at a time, and described as a five-number
// summary.
func (p *Pipeline) computeElevationStats(ctx context.Context, inv *invocation) (int, error) {
	classified, err := inv.classifiedHFI(ctx, p.logger)
	if err != nil {
		return 0, err
	}
	dem, err := inv.cache.LoadRaster(ctx, inv.keys.Elevation)
	if err != nil {
		return 0, fmt.Errorf("load elevation raster %q: %w", inv.keys.Elevation, err)
	}
	alignedDEM, err := raster.Align(dem, classified, raster.Bilinear)
	if err != nil {
		return 0, fmt.Errorf("align elevation raster: %w", err)
	}

	now := domain.Now()

	total := 0
	for _, zone := range inv.zones {
		clippedClass, cutline, ok, err := p.clipZone(ctx, zone, domain.StatFamilyElevation, classified)
		if err != nil {
			return total, err
		}
		if !ok {
			continue
		}
		clippedDEM, err := raster.Clip(alignedDEM, cutline)
		if err != nil {
			return total, fmt.Errorf("clip elevation for zone %s: %w", zone.SourceIdentifier, err)
		}

		rows := make([]domain.ElevationStat, 0, len(inv.bands))
		for _, band := range inv.bands {
			masked, err := raster.MaskEqual(clippedDEM, clippedClass, band.ID)
			if err != nil {
				return total, err
			}
			d := raster.Describe(masked)
			rows = append(rows, domain.ElevationStat{
				ZoneID:      zone.ID,
				ThresholdID: band.ID,
				RunID:       inv.identity.ID,
				Minimum:     d.Min,
				Quartile25:  d.Q25,
				Median:      d.Median,
				Quartile75:  d.Q75,
				Maximum:     d.Max,
				CreatedAt:   now,
			})
		}

		if err := p.repo.SaveElevationStats(ctx, rows); err != nil {
			return total, fmt.Errorf("save zone %s: %w", zone.SourceIdentifier, err)
		}
		total += len(rows)
		p.metrics.ZonesProcessed.WithLabelValues(string(domain.StatFamilyElevation)).Inc()
	}
	return total, nil
}

// computeTPIStats counts each zone's cells per topographic position
// class. The TPI layer is pre-classified at its own resolution and is
// clipped directly; PixelSizeM lets consumers convert counts to areas.
func (p *Pipeline) computeTPIStats(ctx context.Context, inv *invocation) (int, error) {
	tpi, err := inv.cache.LoadRaster(ctx, inv.keys.TPI)
	if err != nil {
		return 0, fmt.Errorf("load tpi raster %q: %w", inv.keys.TPI, err)
	}
	codes := map[int]struct{}{
		domain.TPIValleyBottom: {},
		domain.TPIMidSlope:     {},
		domain.TPIUpperSlope:   {},
	}
	pixelSize := math.Abs(tpi.Transform.PixelWidth)
	now := domain.Now()

	total := 0
	for _, zone := range inv.zones {
		clipped, _, ok, err := p.clipZone(ctx, zone, domain.StatFamilyTPI, tpi)
		if err != nil {
			return total, err
		}
		if !ok {
			continue
		}

		counts := raster.Histogram(clipped, codes)
		row := domain.TPIStat{
			ZoneID:         zone.ID,
			RunID:          inv.identity.ID,
			ValleyBottomPx: counts[domain.TPIValleyBottom],
			MidSlopePx:     counts[domain.TPIMidSlope],
			UpperSlopePx:   counts[domain.TPIUpperSlope],
			PixelSizeM:     pixelSize,
			CreatedAt:      now,
		}

		if err := p.repo.SaveTPIStats(ctx, []domain.TPIStat{row}); err != nil {
			return total, fmt.Errorf("save zone %s: %w", zone.SourceIdentifier, err)
		}
		total++
		p.metrics.ZonesProcessed.WithLabelValues(string(domain.StatFamilyTPI)).Inc()
	}
	return total, nil
}

// clipZone fetches the zone cutline in the grid's CRS and clips the
// grid to it, returning the cutline so families with a companion raster
// can reuse it. A zone outside the raster extent is a normal skip, not
// an error: ok is false and the zone loop moves on. The cancellation
// checkpoint between zones lives here because every family routes each
// zone through it.
func (p *Pipeline) clipZone(ctx context.Context, zone domain.ZoneShape, family domain.StatFamily, g *raster.Grid) (*raster.Grid, geo.MultiPolygon, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, false, err
	}

	cutline, err := p.repo.GetZoneCutline(ctx, zone.ID, g.CRS)
	if err != nil {
		return nil, nil, false, fmt.Errorf("zone %s cutline: %w", zone.SourceIdentifier, err)
	}

	clipped, err := raster.Clip(g, cutline)
	if errors.Is(err, raster.ErrEmptyClip) {
		p.logger.Debug("zone outside raster extent, skipping",
			"family", family, "zone", zone.SourceIdentifier)
		p.metrics.ZonesSkipped.WithLabelValues(string(family)).Inc()
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("clip zone %s: %w", zone.SourceIdentifier, err)
	}
	return clipped, cutline, true, nil
}

// thresholdCodes converts the configured bands to a histogram code set.
func thresholdCodes(bands []domain.ThresholdBand) map[int]struct{} {
	codes := make(map[int]struct{}, len(bands))
	for _, b := range bands {
		codes[b.ID] = struct{}{}
	}
	return codes
}
