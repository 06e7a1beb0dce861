// Package domain models the SFMS automatic spatial advisory data:
// computation run identities, HFI threshold bands, fuel types, fire zone
// units, and the per-zone statistic rows the pipeline persists.
//
// # Data Source
//
// The SFMS wildfire simulation exports daily rasters to object storage:
// a continuous Head Fire Intensity (HFI) surface in kW/m, a categorical
// fuel-type layer, a Topographic Position Index (TPI) layer, a digital
// elevation model, and (in spring) a binary snow-coverage mask. Fire
// zone unit polygons live in the spatial database and change rarely.
//
// # Run Identity
//
// Every computation epoch is identified by the triple
// (run type, run datetime, for date):
//
//	run type:     "forecast" or "actual", depending on whether the HFI
//	              surface was produced ahead of the for-date or from
//	              observed weather.
//	run datetime: when SFMS produced the rasters (UTC).
//	for date:     the calendar date the advisory describes.
//
// The triple maps to a durable integer id via an idempotent upsert;
// re-running a pipeline for an existing identity is a guarded no-op, so
// re-triggered jobs never duplicate rows.
//
// # HFI Threshold Bands
//
// Continuous HFI is classified into bands with half-open intervals:
//
//	band 1 "elevated": 4000 kW/m <= HFI < 10000 kW/m
//	band 2 "extreme":  HFI >= 10000 kW/m
//
// 4000 kW/m is the intensity at which direct attack is generally
// abandoned; 10000 kW/m marks extreme fire behaviour. The top band is
// unbounded above.
//
// # Fuel Types
//
// Fuel-type raster codes follow the FBP system export: 1-98 are
// combustible fuels (C-1..C-7, D-1/D-2, M-1/M-2, O-1a/O-1b, S-1..S-3),
// 99 and above are non-fuel: water, rock, urban, snow/ice. A code c is
// combustible exactly when 0 < c < 99.
//
// # TPI Classes
//
// The SFMS TPI layer is pre-classified: 1 = valley bottom, 2 = mid
// slope, 3 = upper slope. Zonal TPI statistics are pixel counts per
// class plus the pixel size, letting consumers derive areas.
package domain
