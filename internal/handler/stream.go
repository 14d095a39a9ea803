package handler

import (
	"bufio"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/firdavsDev/video-streamer-go/internal/middleware"
	"github.com/firdavsDev/video-streamer-go/internal/service"
	"github.com/firdavsDev/video-streamer-go/internal/storage"
	"github.com/firdavsDev/video-streamer-go/pkg/httprange"
)

type StreamHandler struct {
	videos    *service.VideoService
	analytics *service.AnalyticsService
	store     *storage.Store
	chunkSize int
}

func NewStreamHandler(videos *service.VideoService, analytics *service.AnalyticsService, store *storage.Store, chunkSize int) *StreamHandler {
	if chunkSize < 4096 {
		chunkSize = 4096
	}
	return &StreamHandler{videos: videos, analytics: analytics, store: store, chunkSize: chunkSize}
}

// bufferedObject reads the storage object through a fixed-size buffer while
// still closing the underlying stream once the response is written.
type bufferedObject struct {
	*bufio.Reader
	closer io.Closer
}

func (b *bufferedObject) Close() error { return b.closer.Close() }

func (h *StreamHandler) buffered(obj io.ReadCloser) io.ReadCloser {
	return &bufferedObject{Reader: bufio.NewReaderSize(obj, h.chunkSize), closer: obj}
}

// Stream handles GET /api/v1/videos/:id/stream with byte-range support.
// A request without a Range header gets the whole object with 200; a valid
// single range gets 206 with Content-Range.
func (h *StreamHandler) Stream(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}

	video, err := h.videos.GetForStreaming(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		if errors.Is(err, service.ErrVideoNotReady) {
			return middleware.ErrorResponse(c, fiber.StatusConflict, "NOT_READY", "Video is not ready for streaming")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video")
	}

	// A new playback counts as a view when the client sends its session ID
	// and asks for the start of the file.
	h.recordView(c, video.ID)

	c.Set("Accept-Ranges", "bytes")
	c.Set(fiber.HeaderContentType, video.FileType)

	rangeHeader := c.Get("Range")
	if rangeHeader == "" {
		obj, err := h.store.Get(c.Context(), video.ObjectKey)
		if err != nil {
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open video stream")
		}
		countStreamed(video.FileSize)
		return c.SendStream(h.buffered(obj), sendSize(video.FileSize))
	}

	r, err := httprange.Parse(rangeHeader, video.FileSize)
	if err != nil {
		if errors.Is(err, httprange.ErrUnsatisfiable) {
			c.Set("Content-Range", httprange.Unsatisfiable(video.FileSize))
			return middleware.ErrorResponse(c, fiber.StatusRequestedRangeNotSatisfiable, "RANGE_UNSATISFIABLE", "Requested range is outside the video")
		}
		// Malformed Range headers are ignored per RFC 7233.
		obj, gerr := h.store.Get(c.Context(), video.ObjectKey)
		if gerr != nil {
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open video stream")
		}
		countStreamed(video.FileSize)
		return c.SendStream(h.buffered(obj), sendSize(video.FileSize))
	}

	obj, err := h.store.GetRange(c.Context(), video.ObjectKey, r.Start, r.End)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open video stream")
	}

	c.Set("Content-Range", r.ContentRange())
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(r.Length, 10))
	c.Status(fiber.StatusPartialContent)
	countStreamed(r.Length)
	return c.SendStream(h.buffered(obj), sendSize(r.Length))
}

// sendSize converts a byte count to the int SendStream expects. Sizes that
// do not fit the platform int become -1, which makes Fiber stream with
// chunked transfer encoding instead of truncating Content-Length.
func sendSize(n int64) int {
	if n < 0 || n > math.MaxInt {
		return -1
	}
	return int(n)
}

func countStreamed(n int64) {
	if Metrics.BytesStreamed != nil {
		Metrics.BytesStreamed.Add(float64(n))
	}
}

// Thumbnail handles GET /api/v1/videos/:id/thumbnail. If no thumbnail exists
// yet, generation is enqueued and 202 is returned.
func (h *StreamHandler) Thumbnail(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}

	video, err := h.videos.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video")
	}

	if video.ThumbnailKey == nil {
		taskID, err := h.videos.RequestThumbnail(c.Context(), id)
		if err != nil {
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to request thumbnail")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "Thumbnail generation started",
			"taskId":  taskID,
		})
	}

	obj, err := h.store.Get(c.Context(), *video.ThumbnailKey)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open thumbnail")
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.SendStream(obj)
}

// PresignedURL handles GET /api/v1/videos/:id/url?expiry=3600 and returns a
// time-limited direct download link.
func (h *StreamHandler) PresignedURL(c fiber.Ctx) error {
	id, msg := middleware.ValidateUUID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ID", msg)
	}

	expirySec := fiber.Query[int](c, "expiry", 3600)
	expiry := time.Duration(expirySec) * time.Second

	url, err := h.videos.PresignedURL(c.Context(), id, expiry)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		if errors.Is(err, service.ErrVideoNotReady) {
			return middleware.ErrorResponse(c, fiber.StatusConflict, "NOT_READY", "Video is not ready")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate URL")
	}

	return c.JSON(fiber.Map{
		"url":       url,
		"expiresIn": int(clampExpiry(expiry).Seconds()),
	})
}

func clampExpiry(d time.Duration) time.Duration {
	if d < service.MinPresignExpiry {
		return service.MinPresignExpiry
	}
	if d > service.MaxPresignExpiry {
		return service.MaxPresignExpiry
	}
	return d
}

func (h *StreamHandler) recordView(c fiber.Ctx, videoID string) {
	sessionID, msg := middleware.ValidateSessionID(c.Get("X-Session-ID"))
	if msg != "" {
		return
	}
	rangeHeader := c.Get("Range")
	if rangeHeader != "" && !isStartRange(rangeHeader) {
		return
	}
	if err := h.analytics.RecordView(c.Context(), videoID, sessionID, c.IP(), c.Get(fiber.HeaderUserAgent)); err != nil {
		middleware.Logger.Warn().Err(err).Str("video_id", videoID).Msg("record view failed")
	}
}

// isStartRange reports whether the Range header asks for the beginning of
// the file, which is what playback starts look like.
func isStartRange(header string) bool {
	return strings.HasPrefix(header, "bytes=0-")
}
