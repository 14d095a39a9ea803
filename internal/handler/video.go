package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/firdavsDev/video-streamer-go/internal/config"
	"github.com/firdavsDev/video-streamer-go/internal/middleware"
	"github.com/firdavsDev/video-streamer-go/internal/model"
	"github.com/firdavsDev/video-streamer-go/internal/service"
)

type VideoHandler struct {
	svc *service.VideoService
	cfg *config.Config
}

func NewVideoHandler(svc *service.VideoService, cfg *config.Config) *VideoHandler {
	return &VideoHandler{svc: svc, cfg: cfg}
}

// List handles GET /api/v1/videos?skip=0&limit=20&status=completed&search=q
func (h *VideoHandler) List(c fiber.Ctx) error {
	skip := fiber.Query[int](c, "skip", 0)
	limit := fiber.Query[int](c, "limit", middleware.DefaultPageLimit)
	skip, limit, msg := middleware.ValidatePagination(skip, limit)
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", msg)
	}

	status, msg := middleware.ValidateStatus(fiber.Query[string](c, "status"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", msg)
	}

	resp, err := h.svc.List(c.Context(), skip, limit, status, fiber.Query[string](c, "search"))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list videos")
	}
	return c.JSON(resp)
}

// Get handles GET /api/v1/videos/:id
func (h *VideoHandler) Get(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}

	video, err := h.svc.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get video")
	}
	return c.JSON(video)
}

// Upload handles POST /api/v1/videos/upload (multipart/form-data).
func (h *VideoHandler) Upload(c fiber.Ctx) error {
	title, msg := middleware.ValidateTitle(c.FormValue("title"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_TITLE", msg)
	}
	desc, msg := middleware.ValidateDescription(c.FormValue("description"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_DESCRIPTION", msg)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FILE", "file field is required")
	}

	filename, msg := middleware.ValidateUpload(fileHeader.Filename, fileHeader.Size, h.cfg.AllowedExtensions, h.cfg.MaxUploadSize)
	if msg != "" {
		countUpload("rejected")
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FILE", msg)
	}

	contentType, msg := middleware.ValidateContentType(fileHeader.Header.Get("Content-Type"))
	if msg != "" {
		countUpload("rejected")
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FILE", msg)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read upload")
	}
	defer file.Close()

	resp, err := h.svc.Upload(c.Context(), service.UploadInput{
		Title:       title,
		Description: desc,
		Filename:    filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		countUpload("failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store upload")
	}
	countUpload("accepted")
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func countUpload(outcome string) {
	if Metrics.UploadsTotal != nil {
		Metrics.UploadsTotal.WithLabelValues(outcome).Inc()
	}
}

// Status handles GET /api/v1/videos/:id/status
func (h *VideoHandler) Status(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}

	status, err := h.svc.Status(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get status")
	}
	return c.JSON(status)
}

// Delete handles DELETE /api/v1/videos/:id
func (h *VideoHandler) Delete(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}

	if err := h.svc.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete video")
	}
	return c.JSON(fiber.Map{"message": "Video deleted successfully", "videoId": id})
}

// Search handles GET /api/v1/videos/search/query?q=term&limit=20&offset=0
func (h *VideoHandler) Search(c fiber.Ctx) error {
	query, msg := middleware.ValidateSearchQuery(fiber.Query[string](c, "q"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_QUERY", msg)
	}
	offset := fiber.Query[int](c, "offset", 0)
	limit := fiber.Query[int](c, "limit", middleware.DefaultPageLimit)
	offset, limit, msg = middleware.ValidatePagination(offset, limit)
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", msg)
	}

	videos, err := h.svc.Search(c.Context(), query, limit, offset)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Search failed")
	}
	return c.JSON(fiber.Map{"query": query, "results": videos, "count": len(videos)})
}

// Recommendations handles GET /api/v1/videos/:id/recommendations?limit=5
func (h *VideoHandler) Recommendations(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}

	limit := fiber.Query[int](c, "limit", service.DefaultRecommendations)
	videos, err := h.svc.Recommendations(c.Context(), id, limit)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build recommendations")
	}
	return c.JSON(fiber.Map{"videoId": id, "recommendations": videos})
}

// BatchDelete handles POST /api/v1/videos/batch/delete
func (h *VideoHandler) BatchDelete(c fiber.Ctx) error {
	var req model.BatchDeleteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if !req.Confirm {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "CONFIRM_REQUIRED", "Set confirm to true to delete videos")
	}
	if len(req.VideoIDs) == 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "videoIds is required")
	}
	if len(req.VideoIDs) > 50 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "TOO_MANY", "At most 50 videos per batch")
	}
	for _, id := range req.VideoIDs {
		if _, msg := middleware.ValidateUUID(id); msg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
		}
	}

	return c.JSON(h.svc.BatchDelete(c.Context(), req.VideoIDs))
}
