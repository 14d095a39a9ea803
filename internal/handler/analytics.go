package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/firdavsDev/video-streamer-go/internal/middleware"
	"github.com/firdavsDev/video-streamer-go/internal/service"
)

type AnalyticsHandler struct {
	svc *service.AnalyticsService
}

func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

type progressRequest struct {
	CurrentTime float64 `json:"currentTime"`
}

// UpdateProgress handles POST /api/v1/videos/:id/progress. The viewer is
// identified by the X-Session-ID header.
func (h *AnalyticsHandler) UpdateProgress(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}
	sessionID, msg := middleware.ValidateSessionID(c.Get("X-Session-ID"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_SESSION", msg)
	}

	var req progressRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.CurrentTime < 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_TIME", "currentTime must be non-negative")
	}

	resp, err := h.svc.UpdateProgress(c.Context(), id, sessionID, req.CurrentTime)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update progress")
	}
	return c.JSON(resp)
}

// GetProgress handles GET /api/v1/videos/:id/progress, returning the resume
// position for the viewer's session.
func (h *AnalyticsHandler) GetProgress(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}
	sessionID, msg := middleware.ValidateSessionID(c.Get("X-Session-ID"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_SESSION", msg)
	}

	resp, err := h.svc.GetProgress(c.Context(), id, sessionID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get progress")
	}
	return c.JSON(resp)
}

// Stats handles GET /api/v1/videos/:id/stats
func (h *AnalyticsHandler) Stats(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}

	stats, err := h.svc.VideoStats(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get stats")
	}
	return c.JSON(stats)
}

// Analytics handles GET /api/v1/videos/:id/analytics?days=30
func (h *AnalyticsHandler) Analytics(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}

	days := fiber.Query[int](c, "days", service.DefaultAnalyticsDays)
	analytics, err := h.svc.Analytics(c.Context(), id, days)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build analytics")
	}
	return c.JSON(analytics)
}

// Dashboard handles GET /api/v1/videos/dashboard/overview
func (h *AnalyticsHandler) Dashboard(c fiber.Ctx) error {
	resp, err := h.svc.Dashboard(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build dashboard")
	}
	return c.JSON(resp)
}
