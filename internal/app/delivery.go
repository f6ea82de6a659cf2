package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/internal/domain"
)

// DeliveryRouter routes a finished artifact to direct inline delivery or
// overflow object storage based on size. Artifacts at or under the direct
// limit go inline; anything over goes to storage.
type DeliveryRouter struct {
	store       domain.ObjectStore // nil when overflow storage is not configured
	directLimit int64
	logger      *zap.Logger
}

// NewDeliveryRouter creates a delivery router. store may be nil; oversize
// artifacts are then rejected instead of uploaded.
func NewDeliveryRouter(store domain.ObjectStore, directLimit int64, logger *zap.Logger) *DeliveryRouter {
	return &DeliveryRouter{
		store:       store,
		directLimit: directLimit,
		logger:      logger,
	}
}

// Deliver sends the artifact to the user. It returns the route taken and,
// for overflow delivery, the public retrieval URL.
func (r *DeliveryRouter) Deliver(
	ctx context.Context,
	artifact domain.Artifact,
	meta *domain.VideoMetadata,
	sourceURL string,
	m Messenger,
) (domain.DeliveryRoute, string, error) {
	if artifact.Size <= r.directLimit {
		if err := r.sendInline(artifact, meta, sourceURL, m); err != nil {
			return "", "", err
		}
		return domain.RouteInline, "", nil
	}
	return r.sendOverflow(ctx, artifact, meta, sourceURL, m)
}

func (r *DeliveryRouter) sendInline(artifact domain.Artifact, meta *domain.VideoMetadata, sourceURL string, m Messenger) error {
	if err := m.EditStatus("Upload in progress..."); err != nil {
		r.logger.Warn("Failed to edit status message", zap.Error(err))
	}

	caption := fmt.Sprintf("Title: %s\nSource: %s", titleOrDefault(meta), sourceURL)
	if err := m.SendVideo(artifact.Path, caption, meta.Width, meta.Height); err != nil {
		return domain.Wrap(domain.KindDelivery, err, "failed to send video")
	}

	r.logger.Info("Artifact delivered inline",
		zap.String("path", artifact.Path),
		zap.Int64("size", artifact.Size))
	return nil
}

func (r *DeliveryRouter) sendOverflow(
	ctx context.Context,
	artifact domain.Artifact,
	meta *domain.VideoMetadata,
	sourceURL string,
	m Messenger,
) (domain.DeliveryRoute, string, error) {
	sizeMiB := artifact.Size / domain.BytesPerMiB

	if r.store == nil {
		msg := fmt.Sprintf(
			"Sorry, the video is %dMB which exceeds the %dMB limit and no cloud storage is configured.",
			sizeMiB, r.directLimit/domain.BytesPerMiB)
		if err := m.EditStatus(msg); err != nil {
			r.logger.Warn("Failed to edit status message", zap.Error(err))
		}
		return "", "", domain.E(domain.KindSizePostflight,
			"artifact size %d exceeds direct limit %d with no overflow storage", artifact.Size, r.directLimit)
	}

	if err := m.EditStatus("File too large for Telegram. Uploading to cloud storage..."); err != nil {
		r.logger.Warn("Failed to edit status message", zap.Error(err))
	}

	title := titleOrDefault(meta)
	remoteName := overflowObjectName(title)

	publicURL, err := r.store.Upload(ctx, artifact.Path, remoteName, title)
	if err != nil {
		msg := fmt.Sprintf(
			"Sorry, failed to upload the video to cloud storage. "+
				"The video is %dMB which exceeds the %dMB limit.",
			sizeMiB, r.directLimit/domain.BytesPerMiB)
		if editErr := m.EditStatus(msg); editErr != nil {
			r.logger.Warn("Failed to edit status message", zap.Error(editErr))
		}
		return "", "", domain.Wrap(domain.KindUpload, err, "failed to upload %s", remoteName)
	}

	caption := fmt.Sprintf("Title: %s\nSize: %dMB (too large for Telegram)\nDownload: %s\nSource: %s",
		title, sizeMiB, publicURL, sourceURL)
	if err := m.SendText(caption); err != nil {
		return "", "", domain.Wrap(domain.KindDelivery, err, "failed to send overflow link")
	}

	r.logger.Info("Artifact delivered via overflow storage",
		zap.String("object", remoteName),
		zap.Int64("size", artifact.Size),
		zap.String("url", publicURL))
	return domain.RouteOverflow, publicURL, nil
}

// overflowObjectName builds a collision-resistant object name that keeps
// the title readable.
func overflowObjectName(title string) string {
	return fmt.Sprintf("%s_%s.mp4", uuid.New().String(), strings.ReplaceAll(title, " ", "_"))
}

func titleOrDefault(meta *domain.VideoMetadata) string {
	if meta.Title == "" {
		return "Unknown"
	}
	return meta.Title
}

func sizeExceededMessage(size, limit int64) string {
	return fmt.Sprintf("Sorry, the video is too large (size: %dMB, max: %dMB supported).",
		size/domain.BytesPerMiB, limit/domain.BytesPerMiB)
}
