package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus represents the terminal outcome of a completed run.
type RecordStatus string

const (
	RecordRunning   RecordStatus = "running"
	RecordSucceeded RecordStatus = "succeeded"
	RecordFailed    RecordStatus = "failed"
)

// DeliveryRoute records how a finished artifact reached the user.
type DeliveryRoute string

const (
	RouteInline   DeliveryRoute = "inline"
	RouteOverflow DeliveryRoute = "overflow"
)

// DownloadRecord is one row of download history. It is an audit log, not
// job state: nothing is resumed from it after a restart.
type DownloadRecord struct {
	ID          string        `json:"id" gorm:"primaryKey"`
	URL         string        `json:"url" gorm:"not null"`
	Title       string        `json:"title,omitempty"`
	Extractor   string        `json:"extractor,omitempty"`
	Status      RecordStatus  `json:"status" gorm:"not null;index"`
	SizeBytes   int64         `json:"size_bytes"`
	Route       DeliveryRoute `json:"route,omitempty"`
	PublicURL   string        `json:"public_url,omitempty"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	ErrorDetail string        `json:"error_detail,omitempty"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// NewDownloadRecord creates a history record for a run that is starting.
func NewDownloadRecord(url string) *DownloadRecord {
	return &DownloadRecord{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    RecordRunning,
		CreatedAt: time.Now(),
	}
}

// MarkSucceeded finalizes the record for a delivered artifact.
func (r *DownloadRecord) MarkSucceeded(size int64, route DeliveryRoute, publicURL string) {
	r.Status = RecordSucceeded
	r.SizeBytes = size
	r.Route = route
	r.PublicURL = publicURL
	now := time.Now()
	r.CompletedAt = &now
}

// MarkFailed finalizes the record for a failed run.
func (r *DownloadRecord) MarkFailed(err error) {
	r.Status = RecordFailed
	r.ErrorKind = string(KindOf(err))
	if err != nil {
		r.ErrorDetail = err.Error()
	}
	now := time.Now()
	r.CompletedAt = &now
}

// RecordRepository defines the interface for history persistence
type RecordRepository interface {
	// Create stores a new record
	Create(record *DownloadRecord) error

	// Update updates an existing record
	Update(record *DownloadRecord) error

	// FindRecent returns the most recent records, newest first
	FindRecent(limit int) ([]*DownloadRecord, error)

	// GetStats returns aggregate counts by status
	GetStats() (*RecordStats, error)
}

// RecordStats represents download history statistics
type RecordStats struct {
	Total     int64 `json:"total"`
	Running   int64 `json:"running"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}
