package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/api/handlers"
	"github.com/minya/videodlbot/api/middleware"
	"github.com/minya/videodlbot/internal/domain"
)

// SetupRouter sets up the HTTP status router
func SetupRouter(records domain.RecordRepository, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	statusHandler := handlers.NewStatusHandler(records, log)
	router.GET("/health", statusHandler.Health)
	router.GET("/ready", statusHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		downloads := v1.Group("/downloads")
		{
			downloads.GET("", statusHandler.ListDownloads)
			downloads.GET("/stats", statusHandler.GetStats)
		}
	}

	return router
}
