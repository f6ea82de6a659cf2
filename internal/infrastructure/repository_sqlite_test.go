package infrastructure

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minya/videodlbot/internal/domain"
)

func testRepository(t *testing.T) *SQLiteRecordRepository {
	t.Helper()
	repo, err := NewSQLiteRecordRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_CreateAndUpdate(t *testing.T) {
	repo := testRepository(t)

	record := domain.NewDownloadRecord("https://example.com/v")
	require.NoError(t, repo.Create(record))

	record.Title = "Some Clip"
	record.MarkSucceeded(1024, domain.RouteInline, "")
	require.NoError(t, repo.Update(record))

	records, err := repo.FindRecent(10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "Some Clip", got.Title)
	assert.Equal(t, domain.RecordSucceeded, got.Status)
	assert.Equal(t, domain.RouteInline, got.Route)
	assert.Equal(t, int64(1024), got.SizeBytes)
	assert.NotNil(t, got.CompletedAt)
}

func TestRepository_FindRecentOrdering(t *testing.T) {
	repo := testRepository(t)

	for i := 0; i < 5; i++ {
		record := domain.NewDownloadRecord(fmt.Sprintf("https://example.com/v%d", i))
		record.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(record))
	}

	records, err := repo.FindRecent(3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "https://example.com/v4", records[0].URL)
	assert.Equal(t, "https://example.com/v3", records[1].URL)
	assert.Equal(t, "https://example.com/v2", records[2].URL)
}

func TestRepository_GetStats(t *testing.T) {
	repo := testRepository(t)

	succeeded := domain.NewDownloadRecord("https://example.com/ok")
	succeeded.MarkSucceeded(1024, domain.RouteInline, "")
	require.NoError(t, repo.Create(succeeded))

	failed := domain.NewDownloadRecord("https://example.com/bad")
	failed.MarkFailed(domain.E(domain.KindDownload, "boom"))
	require.NoError(t, repo.Create(failed))

	running := domain.NewDownloadRecord("https://example.com/live")
	require.NoError(t, repo.Create(running))

	stats, err := repo.GetStats()
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Succeeded)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Running)
}

func TestRepository_MarkFailedRecordsKind(t *testing.T) {
	repo := testRepository(t)

	record := domain.NewDownloadRecord("https://example.com/big")
	record.MarkFailed(domain.E(domain.KindSizePreflight, "video is too large"))
	require.NoError(t, repo.Create(record))

	records, err := repo.FindRecent(1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, string(domain.KindSizePreflight), records[0].ErrorKind)
	assert.Contains(t, records[0].ErrorDetail, "too large")
}
