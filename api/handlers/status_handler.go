package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/internal/domain"
)

const defaultHistoryLimit = 50

// StatusHandler serves the read-only download history API
type StatusHandler struct {
	records domain.RecordRepository
	logger  *zap.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(records domain.RecordRepository, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{records: records, logger: logger}
}

// Health reports liveness
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness: the history store must be reachable
func (h *StatusHandler) Ready(c *gin.Context) {
	if h.records == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "history": "disabled"})
		return
	}
	if _, err := h.records.GetStats(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// ListDownloads returns recent download records, newest first
func (h *StatusHandler) ListDownloads(c *gin.Context) {
	if h.records == nil {
		c.JSON(http.StatusOK, []*domain.DownloadRecord{})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.records.FindRecent(limit)
	if err != nil {
		h.logger.Error("Failed to fetch download records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
		return
	}

	if records == nil {
		records = []*domain.DownloadRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// GetStats returns aggregate download counts
func (h *StatusHandler) GetStats(c *gin.Context) {
	if h.records == nil {
		c.JSON(http.StatusOK, &domain.RecordStats{})
		return
	}

	stats, err := h.records.GetStats()
	if err != nil {
		h.logger.Error("Failed to fetch download stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
