// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/auth"
	"github.com/emberlabs/go-dating-backend/internal/cache"
	"github.com/emberlabs/go-dating-backend/internal/config"
	"github.com/emberlabs/go-dating-backend/internal/http/handlers"
	"github.com/emberlabs/go-dating-backend/internal/http/middleware"
	"github.com/emberlabs/go-dating-backend/internal/realtime"
	"github.com/emberlabs/go-dating-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), authentication and
// rate limiting, CORS and security headers, health and metrics endpoints, the
// websocket endpoint, and then mounts the versioned public API under /api/v*.
//
// rdb may be nil; like counters and super-like budgets then fall back to
// database counting.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS, gzip, and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *cache.RedisCache, hub *realtime.Hub, verifier auth.Verifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Compress JSON list responses; websocket upgrades are excluded.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/cache/hub
	var limiter services.SuperLikeLimiter
	var counter services.LikeCounter
	if rdb != nil {
		rdb.SuperLikeCap = cfg.SuperLikeCap
		rdb.SuperLikeWindow = cfg.SuperLikeReset
		limiter = rdb
		counter = rdb
	}

	var pusher services.Pusher = services.NopPusher{}
	if hub != nil {
		pusher = hub
	}

	notifSvc := services.NewNotificationService(db, pusher)

	matchSvc := services.NewMatchService(db, notifSvc, limiter, counter)
	matchSvc.SuperLikeWindow = cfg.SuperLikeReset
	matchSvc.SuperLikeCap = cfg.SuperLikeCap

	discoverySvc := services.NewDiscoveryService(db)
	discoverySvc.FetchLimit = cfg.Discovery.FetchLimit
	discoverySvc.TopN = cfg.Discovery.TopN
	discoverySvc.ActiveWindow = cfg.Discovery.ActiveWindow

	searchSvc := services.NewSearchService(db)

	chatSvc := services.NewChatService(db, notifSvc, pusher)
	chatSvc.MaxMessageRunes = cfg.Chat.MaxMessageRunes
	chatSvc.EditWindow = cfg.Chat.EditWindow

	h := handlers.New(discoverySvc, searchSvc, matchSvc, chatSvc, notifSvc)

	// Websocket endpoint (token verified before upgrade)
	if hub != nil {
		wsRouter := realtime.NewRouter(hub, db, chatSvc, matchSvc)
		r.GET("/ws", realtime.Handler(hub, wsRouter, verifier, log.Logger))
	}

	// Public API (bearer auth)
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.RequireAuth(verifier))
	{
		// Discovery
		api.GET("/discover", h.Discover)
		api.GET("/search", h.Search)
		api.POST("/discover/like/:id", h.Like)
		api.POST("/discover/dislike/:id", h.Dislike)
		api.POST("/discover/super-like/:id", h.SuperLike)
		api.POST("/discover/block/:id", h.Block)
		api.GET("/discover/likes/count", h.LikeCount)

		// Matches
		api.GET("/matches", h.ListMatches)
		api.GET("/matches/:id", h.GetMatch)
		api.DELETE("/matches/:id", h.Unmatch)

		// Messages
		api.GET("/matches/:id/messages", h.ListMessages)
		api.POST("/matches/:id/messages", h.SendMessage)
		api.PUT("/messages/:id", h.EditMessage)
		api.DELETE("/messages/:id", h.DeleteMessage)

		// Notifications
		api.GET("/notifications", h.ListNotifications)
		api.PUT("/notifications/:id/read", h.MarkNotificationRead)
		api.PUT("/notifications/read-all", h.MarkAllNotificationsRead)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
