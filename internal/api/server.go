package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/session"
	"rollcall/internal/streak"
)

// Deps carries everything the router needs; fields are interfaces so tests
// can supply in-memory fakes.
type Deps struct {
	Sessions     *session.Service
	Streaks      streak.Store
	Staff        session.Directory
	DBHealthy    func(ctx context.Context) bool
	RedisHealthy func(ctx context.Context) bool
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(cfg config.App, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		dbOK := deps.DBHealthy == nil || deps.DBHealthy(c.Request.Context())
		redisOK := deps.RedisHealthy == nil || deps.RedisHealthy(c.Request.Context())
		status := http.StatusOK
		if !dbOK || !redisOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbOK, "redis": redisOK})
	})

	h := &handlers{cfg: cfg, deps: deps}
	r.POST("/v1/auth/token", h.issueToken)

	limiter := httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	v1 := r.Group("/v1", auth.StaffAuth(cfg.JWTSigningKey, cfg.JWTIssuer), limiter.GinMiddleware())
	v1.POST("/sessions", h.takeAttendance)
	v1.GET("/sessions/:id", h.sessionRecords)
	v1.GET("/records", h.listRecords)
	v1.GET("/streaks/:studentId", h.getStreak)

	return r
}

// corsMiddleware handles browser preflight and response headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// securityHeaders sets conservative browser defaults.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
