package domain

import "errors"

// ErrRasterNotFound reports an object storage key with no raster behind
// it. Some inputs are legitimately absent (the snow mask outside
// spring), so callers branch on this rather than failing the run.
var ErrRasterNotFound = errors.New("raster not found in object store")
