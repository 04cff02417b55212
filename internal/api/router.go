package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marinedrive/phyto-backend/internal/handler"
	"github.com/marinedrive/phyto-backend/internal/middleware"
	"github.com/marinedrive/phyto-backend/internal/service"
)

// Deps 路由依赖
type Deps struct {
	Locations  *service.LocationService
	Detections *service.DetectionService
	Icons      *service.IconService
	Logger     *zap.Logger

	JWTSecret string                  // empty disables auth on write routes
	Limiter   *middleware.RateLimiter // nil disables rate limiting on write routes
	Heartbeat time.Duration
}

// SetupRouter 设置路由
func SetupRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Phytoplankton backend is running",
		})
	})

	locationHandler := handler.NewLocationHandler(deps.Locations, logger)
	detectionHandler := handler.NewDetectionHandler(deps.Detections, deps.Heartbeat, logger)
	iconHandler := handler.NewIconHandler(deps.Icons, logger)

	// 写接口: 鉴权 + 限流
	write := []gin.HandlerFunc{middleware.Auth(deps.JWTSecret)}
	if deps.Limiter != nil {
		write = append(write, middleware.RateLimit(deps.Limiter))
	}
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, write...), h)
	}

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 浮游植物检测数据
		phyto := api.Group("/phytoplankton")
		{
			phyto.GET("", detectionHandler.GetDetections)
			phyto.POST("", guarded(detectionHandler.ReplaceDetections)...)
			phyto.GET("/stream", detectionHandler.Stream)
			phyto.GET("/summary", detectionHandler.GetSummary)
			phyto.GET("/snapshots", detectionHandler.GetSnapshots)

			// 物种分布标记
			phyto.GET("/locations", locationHandler.GetLocations)
			phyto.POST("/locations", guarded(locationHandler.IngestMarkers)...)
			phyto.DELETE("/locations", guarded(locationHandler.ClearCache)...)
			phyto.GET("/locations/species", locationHandler.ListSpecies)
		}

		// 物种图标
		icons := api.Group("/icons")
		{
			icons.GET("", iconHandler.ListIcons)
			icons.GET("/match", iconHandler.MatchIcon)
		}
	}

	return r
}
