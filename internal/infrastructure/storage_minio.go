package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/internal/domain"
)

// titleMetadataKey is the user-metadata key carrying the human-readable
// title on stored objects.
const titleMetadataKey = "title"

// MinioStore implements domain.ObjectStore on an S3-compatible bucket.
// The bucket is expected to allow anonymous reads under the configured
// prefix; Upload returns plain object URLs, not presigned ones.
type MinioStore struct {
	client *minio.Client
	cfg    *domain.StorageConfig
	logger *zap.Logger
}

// NewMinioStore creates an object-storage client from configuration.
func NewMinioStore(cfg *domain.StorageConfig, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &MinioStore{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Upload stores localPath under remoteName, attaches the title as object
// metadata, and returns the public retrieval URL.
func (s *MinioStore) Upload(ctx context.Context, localPath, remoteName, title string) (string, error) {
	objectName := s.cfg.Prefix + remoteName

	s.logger.Info("Uploading artifact to storage",
		zap.String("local", localPath),
		zap.String("object", objectName))

	_, err := s.client.FPutObject(ctx, s.cfg.Bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType:  "video/mp4",
		UserMetadata: map[string]string{titleMetadataKey: title},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}

	publicURL := s.publicURL(objectName)
	s.logger.Info("Upload complete", zap.String("url", publicURL))
	return publicURL, nil
}

// List returns objects under the configured prefix.
func (s *MinioStore) List(ctx context.Context) ([]domain.StoredObject, error) {
	var objects []domain.StoredObject

	for info := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:       s.cfg.Prefix,
		Recursive:    true,
		WithMetadata: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", info.Err)
		}

		title := info.UserMetadata["X-Amz-Meta-Title"]
		if title == "" {
			title = strings.TrimPrefix(info.Key, s.cfg.Prefix)
		}

		objects = append(objects, domain.StoredObject{
			Name:      strings.TrimPrefix(info.Key, s.cfg.Prefix),
			Title:     title,
			Size:      info.Size,
			Created:   info.LastModified,
			PublicURL: s.publicURL(info.Key),
		})
	}

	return objects, nil
}

// Delete removes an object by its name relative to the prefix.
func (s *MinioStore) Delete(ctx context.Context, name string) error {
	objectName := s.cfg.Prefix + name
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectName, err)
	}
	s.logger.Info("Object deleted", zap.String("object", objectName))
	return nil
}

func (s *MinioStore) publicURL(objectName string) string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, escapePath(objectName))
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
