package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nextdocs/docsgpt/internal/api/chat"
	"github.com/nextdocs/docsgpt/internal/api/middleware"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(chatService chat.Streamer, logger *zap.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	chatHandler := chat.NewHandler(chatService, logger)
	apiGroup := r.Group("/api")
	chatHandler.RegisterRoutes(apiGroup)

	return r
}
