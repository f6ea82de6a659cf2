package infrastructure

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/minya/videodlbot/internal/domain"
)

// SQLiteRecordRepository implements domain.RecordRepository using SQLite
type SQLiteRecordRepository struct {
	db *gorm.DB
}

// NewSQLiteRecordRepository creates a new SQLite history repository
func NewSQLiteRecordRepository(dbPath string) (*SQLiteRecordRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.DownloadRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteRecordRepository{db: db}, nil
}

// Create stores a new record
func (r *SQLiteRecordRepository) Create(record *domain.DownloadRecord) error {
	return r.db.Create(record).Error
}

// Update updates an existing record
func (r *SQLiteRecordRepository) Update(record *domain.DownloadRecord) error {
	return r.db.Save(record).Error
}

// FindRecent returns the most recent records, newest first
func (r *SQLiteRecordRepository) FindRecent(limit int) ([]*domain.DownloadRecord, error) {
	var records []*domain.DownloadRecord
	err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// GetStats returns aggregate counts by status
func (r *SQLiteRecordRepository) GetStats() (*domain.RecordStats, error) {
	stats := &domain.RecordStats{}

	if err := r.db.Model(&domain.DownloadRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	counts := map[domain.RecordStatus]*int64{
		domain.RecordRunning:   &stats.Running,
		domain.RecordSucceeded: &stats.Succeeded,
		domain.RecordFailed:    &stats.Failed,
	}
	for status, dest := range counts {
		if err := r.db.Model(&domain.DownloadRecord{}).
			Where("status = ?", status).
			Count(dest).Error; err != nil {
			return nil, err
		}
	}

	return stats, nil
}

// Close closes the underlying database connection
func (r *SQLiteRecordRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
