package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minya/videodlbot/internal/domain"
	"github.com/minya/videodlbot/pkg/logger"
)

// fakeStore implements domain.ObjectStore for testing
type fakeStore struct {
	uploadErr error
	uploads   []string
	deleted   []string
	objects   []domain.StoredObject
}

func (f *fakeStore) Upload(ctx context.Context, localPath, remoteName, title string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, remoteName)
	return "https://storage.example.com/videos/" + remoteName, nil
}

func (f *fakeStore) List(ctx context.Context) ([]domain.StoredObject, error) {
	return f.objects, nil
}

func (f *fakeStore) Delete(ctx context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

const testDirectLimit = int64(50 * 1048576)

func testMeta() *domain.VideoMetadata {
	return &domain.VideoMetadata{Title: "Some Clip", Width: 1280, Height: 720}
}

func TestDeliver_AtThresholdGoesInline(t *testing.T) {
	store := &fakeStore{}
	m := &fakeMessenger{}
	r := NewDeliveryRouter(store, testDirectLimit, logger.NewDefault())

	artifact := domain.Artifact{Path: "/tmp/a.mp4", Size: testDirectLimit}
	route, publicURL, err := r.Deliver(context.Background(), artifact, testMeta(), "https://src", m)

	require.NoError(t, err)
	assert.Equal(t, domain.RouteInline, route)
	assert.Empty(t, publicURL)
	assert.Empty(t, store.uploads)
	require.Len(t, m.videos, 1)
}

func TestDeliver_OneByteOverGoesOverflow(t *testing.T) {
	store := &fakeStore{}
	m := &fakeMessenger{}
	r := NewDeliveryRouter(store, testDirectLimit, logger.NewDefault())

	artifact := domain.Artifact{Path: "/tmp/a.mp4", Size: testDirectLimit + 1}
	route, publicURL, err := r.Deliver(context.Background(), artifact, testMeta(), "https://src", m)

	require.NoError(t, err)
	assert.Equal(t, domain.RouteOverflow, route)
	assert.NotEmpty(t, publicURL)
	assert.Empty(t, m.videos)
	require.Len(t, store.uploads, 1)
	assert.Contains(t, store.uploads[0], "Some_Clip")
	assert.Contains(t, store.uploads[0], ".mp4")

	require.Len(t, m.texts, 1)
	caption := m.texts[0]
	assert.Contains(t, caption, "Title: Some Clip")
	assert.Contains(t, caption, fmt.Sprintf("%dMB", (testDirectLimit+1)/domain.BytesPerMiB))
	assert.Contains(t, caption, publicURL)
	assert.Contains(t, caption, "Source: https://src")
}

func TestDeliver_InlineCaption(t *testing.T) {
	m := &fakeMessenger{}
	r := NewDeliveryRouter(nil, testDirectLimit, logger.NewDefault())

	artifact := domain.Artifact{Path: "/tmp/a.mp4", Size: 100}
	_, _, err := r.Deliver(context.Background(), artifact, testMeta(), "https://src", m)

	require.NoError(t, err)
	require.Len(t, m.videos, 1)
	assert.Equal(t, "Title: Some Clip\nSource: https://src", m.videos[0])
}

func TestDeliver_UploadFailure(t *testing.T) {
	store := &fakeStore{uploadErr: errors.New("bucket gone")}
	m := &fakeMessenger{}
	r := NewDeliveryRouter(store, testDirectLimit, logger.NewDefault())

	artifact := domain.Artifact{Path: "/tmp/a.mp4", Size: testDirectLimit + 1}
	_, _, err := r.Deliver(context.Background(), artifact, testMeta(), "https://src", m)

	require.Error(t, err)
	assert.Equal(t, domain.KindUpload, domain.KindOf(err))

	edits := m.allEdits()
	require.NotEmpty(t, edits)
	assert.Contains(t, edits[len(edits)-1], "failed to upload")
}

func TestDeliver_OversizeWithoutStorage(t *testing.T) {
	m := &fakeMessenger{}
	r := NewDeliveryRouter(nil, testDirectLimit, logger.NewDefault())

	artifact := domain.Artifact{Path: "/tmp/a.mp4", Size: testDirectLimit + 1}
	_, _, err := r.Deliver(context.Background(), artifact, testMeta(), "https://src", m)

	require.Error(t, err)
	assert.Equal(t, domain.KindSizePostflight, domain.KindOf(err))

	edits := m.allEdits()
	require.NotEmpty(t, edits)
	assert.Contains(t, edits[len(edits)-1], "no cloud storage is configured")
}

func TestDeliver_UntitledArtifact(t *testing.T) {
	m := &fakeMessenger{}
	r := NewDeliveryRouter(nil, testDirectLimit, logger.NewDefault())

	artifact := domain.Artifact{Path: "/tmp/a.mp4", Size: 100}
	_, _, err := r.Deliver(context.Background(), artifact, &domain.VideoMetadata{}, "https://src", m)

	require.NoError(t, err)
	require.Len(t, m.videos, 1)
	assert.Contains(t, m.videos[0], "Title: Unknown")
}
