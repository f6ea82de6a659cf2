package domain

import (
	"context"
	"time"
)

// Extractor retrieves metadata about a media resource without transferring
// its bytes. A single synchronous, potentially slow, network-bound call.
type Extractor interface {
	// Extract returns metadata for the single item at url. It fails with
	// an extraction-classified error when the external tool errors,
	// returns nothing, or returns a playlist where one item was expected.
	Extract(ctx context.Context, url string) (*VideoMetadata, error)
}

// ProgressFunc receives whole progress snapshots from the worker. It must
// be cheap; the downloader calls it inline.
type ProgressFunc func(*ProgressSnapshot)

// Downloader performs the long blocking download+merge+re-encode
// operation, writing the final artifact to outputPath.
type Downloader interface {
	// Download fetches url into outputPath applying plan. Progress is
	// reported through onProgress when non-nil.
	Download(ctx context.Context, url, outputPath string, plan EncodePlan, onProgress ProgressFunc) error
}

// StoredObject describes one object in overflow storage.
type StoredObject struct {
	Name      string
	Title     string
	Size      int64
	Created   time.Time
	PublicURL string
}

// ObjectStore is the overflow object-storage client.
type ObjectStore interface {
	// Upload stores localPath under remoteName with title attached as
	// metadata, marks it publicly retrievable, and returns the public URL.
	Upload(ctx context.Context, localPath, remoteName, title string) (string, error)

	// List returns stored objects under the configured prefix.
	List(ctx context.Context) ([]StoredObject, error)

	// Delete removes an object by name.
	Delete(ctx context.Context, name string) error
}
