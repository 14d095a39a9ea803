package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/firdavsDev/video-streamer-go/internal/config"
	"github.com/firdavsDev/video-streamer-go/internal/handler"
	"github.com/firdavsDev/video-streamer-go/internal/middleware"
	"github.com/firdavsDev/video-streamer-go/internal/service"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Auth      *handler.AuthHandler
	Video     *handler.VideoHandler
	Stream    *handler.StreamHandler
	Analytics *handler.AnalyticsHandler
	Health    *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, auth *service.AuthService, cfg *config.Config) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(cfg.CORSOrigins))
	app.Use(handler.MetricsMiddleware())

	// Health and metrics (before API group, no auth needed)
	app.Get("/health", h.Health.Ready)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/health/database", h.Health.Database)
	app.Get("/health/storage", h.Health.Storage)
	app.Get("/metrics", handler.MetricsHandler())

	requireAuth := middleware.NewAuth(auth)
	requireSuperAdmin := middleware.RequireSuperAdmin()

	loginLimit := middleware.NewLoginRateLimiter(cfg.RateLimitLogin).Handler()
	uploadLimit := middleware.NewUploadRateLimiter(cfg.RateLimitUpload).Handler()
	streamLimit := middleware.NewStreamRateLimiter(cfg.RateLimitStream).Handler()
	apiLimit := middleware.NewAPIRateLimiter(cfg.RateLimitAPI).Handler()

	api := app.Group("/api/v1", apiLimit)

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/login", h.Auth.Login, loginLimit)
	authGroup.Post("/refresh", h.Auth.Refresh)
	authGroup.Get("/me", h.Auth.Me, requireAuth)
	authGroup.Post("/logout", h.Auth.Logout, requireAuth)
	authGroup.Post("/change-password", h.Auth.ChangePassword, requireAuth)
	authGroup.Get("/validate-token", h.Auth.ValidateToken, requireAuth)
	authGroup.Get("/permissions", h.Auth.Permissions, requireAuth)
	authGroup.Get("/session-info", h.Auth.SessionInfo, requireAuth)
	authGroup.Get("/users", h.Auth.ListUsers, requireAuth, requireSuperAdmin)
	authGroup.Post("/users/:username/toggle-status", h.Auth.ToggleUserStatus, requireAuth, requireSuperAdmin)

	// Video routes. Static paths are registered before the :id routes so
	// "search" and friends never match as IDs.
	videos := api.Group("/videos")
	videos.Get("/", h.Video.List, requireAuth)
	videos.Post("/upload", h.Video.Upload, requireAuth, uploadLimit)
	videos.Get("/search/query", h.Video.Search, requireAuth)
	videos.Post("/batch/delete", h.Video.BatchDelete, requireAuth)
	videos.Get("/dashboard/overview", h.Analytics.Dashboard, requireAuth)

	videos.Get("/:id", h.Video.Get, requireAuth)
	videos.Get("/:id/status", h.Video.Status, requireAuth)
	videos.Delete("/:id", h.Video.Delete, requireAuth)

	// Streaming and playback are session-based, not JWT-gated, so players
	// and <video> tags can fetch them directly.
	videos.Get("/:id/stream", h.Stream.Stream, streamLimit)
	videos.Get("/:id/thumbnail", h.Stream.Thumbnail, streamLimit)
	videos.Get("/:id/url", h.Stream.PresignedURL, requireAuth)

	videos.Post("/:id/progress", h.Analytics.UpdateProgress)
	videos.Get("/:id/progress", h.Analytics.GetProgress)
	videos.Get("/:id/stats", h.Analytics.Stats, requireAuth)
	videos.Get("/:id/analytics", h.Analytics.Analytics, requireAuth)
	videos.Get("/:id/recommendations", h.Video.Recommendations, requireAuth)
}
