package pipeline

import (
	"context"
	"sync"

	"github.com/bcgov/sfms-advisory/internal/raster"
)

// CachedSource memoizes raster fetches for the lifetime of one pipeline
// invocation. The companion rasters (TPI, DEM, fuel type) are large and
// reused across every zone and threshold of a run, but the cache must
// not outlive the invocation: each run constructs its own CachedSource
// and releases it when done, so concurrent invocations never share
// state. Errors are not memoized; a transient fetch failure may succeed
// on the next family's attempt.
type CachedSource struct {
	inner RasterSource

	mu      sync.Mutex
	entries map[string]*raster.Grid
}

// NewCachedSource creates a per-invocation cache around a raster source.
func NewCachedSource(inner RasterSource) *CachedSource {
	return &CachedSource{
		inner:   inner,
		entries: make(map[string]*raster.Grid),
	}
}

// LoadRaster returns the cached grid for key, fetching on first use.
func (c *CachedSource) LoadRaster(ctx context.Context, key string) (*raster.Grid, error) {
	c.mu.Lock()
	if g, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return g, nil
	}
	c.mu.Unlock()

	g, err := c.inner.LoadRaster(ctx, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = g
	c.mu.Unlock()
	return g, nil
}

// Release drops every cached grid so the backing arrays can be collected
// as soon as the invocation ends.
func (c *CachedSource) Release() {
	c.mu.Lock()
	c.entries = make(map[string]*raster.Grid)
	c.mu.Unlock()
}
