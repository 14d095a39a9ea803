package middleware

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/firdavsDev/video-streamer-go/internal/model"
)

// Field length limits matching database schema constraints.
const (
	MaxTitleLen       = 200 // videos.title VARCHAR(200)
	MaxDescriptionLen = 2000
	MaxFilenameLen    = 255 // videos.original_filename VARCHAR(255)
	MaxSessionIDLen   = 64  // view_sessions.session_id VARCHAR(64)
	MaxSearchLen      = 100

	MaxPageLimit     = 100
	DefaultPageLimit = 20
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateUUID checks that a path parameter is a well-formed UUID.
func ValidateUUID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "id is required"
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", "id must be a valid UUID"
	}
	return id, ""
}

// ValidateTitle checks the video title field.
func ValidateTitle(title string) (string, string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "title is required"
	}
	if len(title) > MaxTitleLen {
		return "", fmt.Sprintf("title must be at most %d characters", MaxTitleLen)
	}
	return title, ""
}

// ValidateDescription trims and bounds the optional description field.
func ValidateDescription(desc string) (string, string) {
	desc = strings.TrimSpace(desc)
	if len(desc) > MaxDescriptionLen {
		return "", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen)
	}
	return desc, ""
}

// ValidateStatus parses an optional status filter.
func ValidateStatus(raw string) (*model.VideoStatus, string) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return nil, ""
	}
	status, err := model.ParseStatus(raw)
	if err != nil {
		return nil, "status must be one of: pending, uploading, processing, completed, failed, deleted"
	}
	return &status, ""
}

// ValidatePagination bounds skip/limit query parameters.
func ValidatePagination(skip, limit int) (int, int, string) {
	if skip < 0 {
		return 0, 0, "skip must be non-negative"
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 1 || limit > MaxPageLimit {
		return 0, 0, fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit)
	}
	return skip, limit, ""
}

// ValidateUpload checks the uploaded file's name, extension, and size against
// the configured limits. Returns the sanitized base filename.
func ValidateUpload(filename string, size int64, allowedExts []string, maxSize int64) (string, string) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return "", "filename is required"
	}
	if len(filename) > MaxFilenameLen {
		return "", fmt.Sprintf("filename must be at most %d characters", MaxFilenameLen)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range allowedExts {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Sprintf("file type %s not allowed (allowed: %s)", ext, strings.Join(allowedExts, ", "))
	}

	if size <= 0 {
		return "", "file is empty"
	}
	if size > maxSize {
		return "", fmt.Sprintf("file too large (max %d MB)", maxSize/(1024*1024))
	}
	return filename, ""
}

// allowedContentTypes are the non-video MIME types accepted on upload.
// Browsers sometimes send a generic type for video files, so the octet-stream
// fallback stays allowed; the extension check still applies.
var allowedContentTypes = map[string]bool{
	"application/octet-stream": true,
}

// ValidateContentType checks the declared MIME type of an upload. Any video/*
// type is accepted; parameters after ";" are stripped. Returns the normalized
// media type.
func ValidateContentType(contentType string) (string, string) {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "" {
		return "application/octet-stream", ""
	}
	if strings.HasPrefix(mediaType, "video/") || allowedContentTypes[mediaType] {
		return mediaType, ""
	}
	return "", fmt.Sprintf("content type %s not allowed", mediaType)
}

// ValidateSessionID bounds the viewer session identifier from X-Session-ID.
func ValidateSessionID(sessionID string) (string, string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", "session id is required"
	}
	if len(sessionID) > MaxSessionIDLen {
		return "", fmt.Sprintf("session id must be at most %d characters", MaxSessionIDLen)
	}
	return sessionID, ""
}

// ValidateSearchQuery trims and bounds the free-text search query.
func ValidateSearchQuery(q string) (string, string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", "query is required"
	}
	if len(q) > MaxSearchLen {
		return "", fmt.Sprintf("query must be at most %d characters", MaxSearchLen)
	}
	return q, ""
}
