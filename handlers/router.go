package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/linkshare/linkshare/backend/session-store/internal/config"
	"github.com/linkshare/linkshare/backend/session-store/internal/sessions"
	"github.com/linkshare/linkshare/backend/session-store/pkg/metrics"
	"github.com/linkshare/linkshare/backend/session-store/pkg/middleware"
)

type RouterDeps struct {
	Config   *config.Config
	Sessions *sessions.Service
	// Schema is nil when running on the memory store.
	Schema SchemaManager
	Redis  *redis.Client
	Checks []Check
}

// NewRouter wires every route of the session store.
func NewRouter(d RouterDeps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", Health)
	r.GET("/ready", Ready(d.Checks...))

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterSwagger(r)

	trusted := middleware.BasicAuth(cfg.BasicAuth.Username, cfg.BasicAuth.Password)
	NewSessionHandler(d.Sessions).Register(r, trusted)
	if d.Schema != nil {
		NewSchemaHandler(d.Schema).Register(r, trusted)
	}
	return r
}
