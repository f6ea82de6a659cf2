//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/api"
	"github.com/minya/videodlbot/internal/domain"
	"github.com/minya/videodlbot/internal/infrastructure"
)

func setupTestServer(t *testing.T) (*httptest.Server, *infrastructure.SQLiteRecordRepository) {
	gin.SetMode(gin.TestMode)

	repo, err := infrastructure.NewSQLiteRecordRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	server := httptest.NewServer(api.SetupRouter(repo, zap.NewNop()))
	t.Cleanup(server.Close)

	return server, repo
}

func TestAPI_Health(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_Ready(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_ListDownloads(t *testing.T) {
	server, repo := setupTestServer(t)

	record := domain.NewDownloadRecord("https://example.com/v")
	record.Title = "Some Clip"
	record.MarkSucceeded(1024, domain.RouteInline, "")
	require.NoError(t, repo.Create(record))

	resp, err := http.Get(server.URL + "/api/v1/downloads")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []*domain.DownloadRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "Some Clip", records[0].Title)
	assert.Equal(t, domain.RecordSucceeded, records[0].Status)
}

func TestAPI_ListDownloads_InvalidLimit(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/downloads?limit=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Stats(t *testing.T) {
	server, repo := setupTestServer(t)

	ok := domain.NewDownloadRecord("https://example.com/ok")
	ok.MarkSucceeded(1024, domain.RouteInline, "")
	require.NoError(t, repo.Create(ok))

	bad := domain.NewDownloadRecord("https://example.com/bad")
	bad.MarkFailed(domain.E(domain.KindDownload, "boom"))
	require.NoError(t, repo.Create(bad))

	resp, err := http.Get(server.URL + "/api/v1/downloads/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats domain.RecordStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Succeeded)
	assert.Equal(t, int64(1), stats.Failed)
}
