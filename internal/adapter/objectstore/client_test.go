package objectstore

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcgov/sfms-advisory/internal/observability"
)

const sampleBody = `ncols 2
nrows 1
xllcorner 0
yllcorner 0
cellsize 2000
NODATA_value -9999
epsg 3005
4200 11000
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, testLogger(), observability.NewMetricsForTesting())
}

func TestLoadRaster(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, sampleBody)
	})

	g, err := c.LoadRaster(context.Background(), "sfms/uploads/forecast/2024-08-15/hfi2024-08-16.asc")
	require.NoError(t, err)

	assert.Equal(t, "/sfms/uploads/forecast/2024-08-15/hfi2024-08-16.asc", gotPath,
		"key slashes must survive as path separators")
	assert.Equal(t, 2, g.Width)
	assert.Equal(t, 4200.0, g.Value(0, 0))
}

func TestLoadRaster_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.LoadRaster(context.Background(), "sfms/uploads/snow/2024-08-16.asc")
	assert.ErrorIs(t, err, ErrRasterNotFound)
}

func TestLoadRaster_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.LoadRaster(context.Background(), "key")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRasterNotFound)
	assert.Contains(t, err.Error(), "status 500")
}

func TestLoadRaster_UndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not a grid")
	})

	_, err := c.LoadRaster(context.Background(), "key")
	assert.Error(t, err)
}
