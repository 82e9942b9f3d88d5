// Package httpapi wires the HTTP transport (Gin) to the planner, middleware
// and route handlers. It centralizes cross-cutting concerns such as tracing,
// correlation IDs, logging/redaction, panic recovery, compression, metrics,
// idempotent replay, rate limiting, CORS and security headers.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-boardgame-planner/docs"
	"github.com/tbourn/go-boardgame-planner/internal/config"
	"github.com/tbourn/go-boardgame-planner/internal/http/handlers"
	"github.com/tbourn/go-boardgame-planner/internal/http/middleware"
)

// Deps are the collaborators the routes need.
type Deps struct {
	// DB backs the idempotency store and the readiness check.
	DB *gorm.DB
	// Planner serves every API operation.
	Planner handlers.Planner
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. AccessLog: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. gzip (the idempotency recorder sits inside it and stores plain bodies)
//  7. Metrics
//  8. Idempotency: replay stored POST responses before the limiter so a
//     retry never spends a token
//  9. Rate limiter (per user/IP, POST only)
//  10. CORS and security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(middleware.RedactOptions{
		MaskHeaders: []string{"X-Goog-Api-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(cfg.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.Idempotency(
		middleware.IdempotencyOptions{MaxLen: 200},
		&idempotencyStore{db: deps.DB, ttl: cfg.IdempotencyTTL},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP(), middleware.OnlyPOST)
	r.Use(rl.Handler())

	r.Use(corsHandlers(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(deps.DB))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.Planner)
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		plans := api.Group("/plans")
		plans.POST("/generate-concept", h.GenerateConcept)
		plans.POST("/regenerate-concept", h.RegenerateConcept)
		plans.POST("/generate-goal", h.GenerateObjective)
		plans.POST("/generate-objective", h.GenerateObjective)
		plans.POST("/generate-components", h.GenerateComponents)
		plans.POST("/regenerate-components", h.RegenerateComponents)
		plans.POST("/generate-rule", h.GenerateRule)
		plans.POST("/regenerate-rule", h.RegenerateRule)
		plans.GET("/:id/concepts", h.ListConcepts)

		api.GET("/rules/:id/lineage", h.RuleLineage)

		api.POST("/simulate/rule-test", h.SimulateRule)
		api.GET("/feedback/balance", h.BalanceFeedback)
	}
}

// health reports liveness and, when a database is wired, its reachability.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// corsHandlers allows every origin when none is configured; otherwise only
// the allowlist is echoed back.
func corsHandlers(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", middleware.HeaderReplayed, "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// ACAO: * even without an Origin header, for probes and simple clients.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps the request body size. Oversized bodies make downstream
// reads fail, which JSON binding reports as a bad request.
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
