package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mvargas/muni-machinery/internal/config"
	"github.com/mvargas/muni-machinery/internal/metrics"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, cfg *config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if cfg.Metrics.Enabled {
		router.GET("/metrics", metrics.Handler())
	}

	handler.Register(router, authMiddleware)
	return router
}
