package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/scambase-backend/internal/config"
	"github.com/ignatzorin/scambase-backend/internal/http/handlers"
	"github.com/ignatzorin/scambase-backend/internal/http/middleware"
)

// SetupRouter собирает маршруты сервиса.
func SetupRouter(
	cfg *config.Config,
	eventHandler *handlers.EventHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	api.Use(middleware.GatewayAuthMiddleware(cfg.GatewayKey))
	{
		api.POST("/events", eventHandler.HandleEvent)
		api.GET("/ws/moderation", wsHandler.Handle)
	}

	return r
}
