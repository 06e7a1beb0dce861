// Package objectstore fetches SFMS rasters from S3-style object storage
// over HTTP and decodes them into raster grids.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bcgov/sfms-advisory/internal/asciigrid"
	"github.com/bcgov/sfms-advisory/internal/domain"
	"github.com/bcgov/sfms-advisory/internal/observability"
	"github.com/bcgov/sfms-advisory/internal/raster"
)

// ErrRasterNotFound aliases the domain sentinel for callers working at
// the adapter level.
var ErrRasterNotFound = domain.ErrRasterNotFound

// Client loads rasters by key from an HTTP object store endpoint.
// It implements pipeline.RasterSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an object store client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// LoadRaster fetches and decodes the raster stored under key.
func (c *Client) LoadRaster(ctx context.Context, key string) (*raster.Grid, error) {
	start := time.Now()
	g, err := c.fetch(ctx, key)
	c.metrics.RasterLoadDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrRasterNotFound):
		c.metrics.RasterLoads.WithLabelValues("not_found").Inc()
	case err != nil:
		c.metrics.RasterLoads.WithLabelValues("error").Inc()
	default:
		c.metrics.RasterLoads.WithLabelValues("success").Inc()
		c.logger.Debug("raster loaded", "key", key,
			"width", g.Width, "height", g.Height, "duration", time.Since(start))
	}
	return g, err
}

func (c *Client) fetch(ctx context.Context, key string) (*raster.Grid, error) {
	u := c.baseURL + "/" + url.PathEscape(key)
	// Object keys contain slashes that must survive as path separators.
	u = strings.ReplaceAll(u, "%2F", "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch raster %q: %w", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrRasterNotFound, key)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("object store error for %q: status %d: %s", key, resp.StatusCode, body)
	}

	g, err := asciigrid.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode raster %q: %w", key, err)
	}
	return g, nil
}
