package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/bcgov/sfms-advisory/internal/adapter/http"
	"github.com/bcgov/sfms-advisory/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockRuns struct {
	last domain.RunCompleted
	ok   bool
}

func (m *mockRuns) LastRun() (domain.RunCompleted, bool) { return m.last, m.ok }

func newTestServer(readyErr error, runs *mockRuns) *httpadapter.Server {
	if runs == nil {
		runs = &mockRuns{}
	}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, runs, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("consumer not started"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "consumer not started", body["error"])
}

func TestStatuszReturns204BeforeFirstRun(t *testing.T) {
	srv := newTestServer(nil, &mockRuns{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/statusz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStatuszReportsLastRun(t *testing.T) {
	completed := domain.RunCompleted{
		RunID:       3,
		RunType:     domain.RunTypeForecast,
		RunDatetime: time.Date(2024, 8, 15, 17, 0, 0, 0, time.UTC),
		ForDate:     "2024-08-16",
		RowCounts:   map[domain.StatFamily]int{domain.StatFamilyHighHFI: 4},
		CompletedAt: time.Date(2024, 8, 15, 17, 5, 0, 0, time.UTC),
	}
	srv := newTestServer(nil, &mockRuns{last: completed, ok: true})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/statusz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body domain.RunCompleted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.RunID)
	assert.Equal(t, "2024-08-16", body.ForDate)
	assert.Equal(t, 4, body.RowCounts[domain.StatFamilyHighHFI])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
