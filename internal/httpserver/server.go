package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lyhengdev/adtrack/internal/auth"
	"github.com/lyhengdev/adtrack/internal/cache"
	"github.com/lyhengdev/adtrack/internal/config"
	"github.com/lyhengdev/adtrack/internal/handlers"
	"github.com/lyhengdev/adtrack/internal/store"
)

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health, /ready
// Authenticated: /track, /metrics
// guard may be nil when Redis is not configured.
func NewRouter(cfg config.Config, st *store.PostgresStore, guard *cache.Client) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Auth group enforces tenant context via X-API-Key.
	authGroup := r.Group("/")
	authGroup.Use(auth.APIKeyMiddleware(cfg.APIKeys))

	// A typed nil *cache.Client must not become a non-nil interface.
	var g handlers.DedupeGuard
	if guard != nil {
		g = guard
	}

	handlers.RegisterTrackRoutes(authGroup, st, g, cfg.DedupeTTL)
	handlers.RegisterMetricRoutes(authGroup, st)

	return r
}
