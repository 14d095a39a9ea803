package model

import (
	"fmt"
	"time"
)

// VideoStatus is the processing lifecycle state of a video.
type VideoStatus string

const (
	StatusPending    VideoStatus = "pending"
	StatusUploading  VideoStatus = "uploading"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusFailed     VideoStatus = "failed"
	StatusDeleted    VideoStatus = "deleted"
)

// statusTransitions lists the allowed next states for each status.
// deleted is terminal; failed videos may be reprocessed.
var statusTransitions = map[VideoStatus][]VideoStatus{
	StatusPending:    {StatusUploading, StatusFailed, StatusDeleted},
	StatusUploading:  {StatusProcessing, StatusFailed, StatusDeleted},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusDeleted},
	StatusCompleted:  {StatusDeleted},
	StatusFailed:     {StatusProcessing, StatusDeleted},
	StatusDeleted:    {},
}

// ParseStatus validates a status string from a query parameter or payload.
func ParseStatus(s string) (VideoStatus, error) {
	switch VideoStatus(s) {
	case StatusPending, StatusUploading, StatusProcessing, StatusCompleted, StatusFailed, StatusDeleted:
		return VideoStatus(s), nil
	}
	return "", fmt.Errorf("invalid status: %q", s)
}

// CanTransition reports whether a video may move from one status to another.
func CanTransition(from, to VideoStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsProcessing reports whether the status counts as in-flight work.
func (s VideoStatus) IsProcessing() bool {
	return s == StatusPending || s == StatusUploading || s == StatusProcessing
}

// IsTerminal reports whether no further transitions are possible.
func (s VideoStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// VideoQuality is the nominal quality tier derived from the probed height.
type VideoQuality string

const (
	Quality240p  VideoQuality = "240p"
	Quality360p  VideoQuality = "360p"
	Quality480p  VideoQuality = "480p"
	Quality720p  VideoQuality = "720p"
	Quality1080p VideoQuality = "1080p"
	Quality1440p VideoQuality = "1440p"
	Quality2160p VideoQuality = "2160p"
)

// QualityForHeight maps a frame height to the highest tier it reaches.
func QualityForHeight(height int) VideoQuality {
	switch {
	case height >= 2160:
		return Quality2160p
	case height >= 1440:
		return Quality1440p
	case height >= 1080:
		return Quality1080p
	case height >= 720:
		return Quality720p
	case height >= 480:
		return Quality480p
	case height >= 360:
		return Quality360p
	default:
		return Quality240p
	}
}

// Video is a row in the videos table.
type Video struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      *string     `json:"description,omitempty"`
	Filename         string      `json:"filename"`
	OriginalFilename string      `json:"originalFilename"`
	ObjectKey        string      `json:"-"`
	FileSize         int64       `json:"fileSize"`
	FileType         string      `json:"fileType"`
	FileExtension    string      `json:"fileExtension"`
	Duration         *float64    `json:"duration,omitempty"`
	Width            *int        `json:"width,omitempty"`
	Height           *int        `json:"height,omitempty"`
	FPS              *float64    `json:"fps,omitempty"`
	Bitrate          *int        `json:"bitrate,omitempty"`
	Codec            *string     `json:"codec,omitempty"`
	Status           VideoStatus `json:"status"`
	Progress         int         `json:"processingProgress"`
	ErrorMessage     *string     `json:"errorMessage,omitempty"`
	ThumbnailKey     *string     `json:"-"`
	ThumbnailReady   bool        `json:"thumbnailReady"`
	ViewCount        int         `json:"viewCount"`
	DownloadCount    int         `json:"downloadCount"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	UploadedAt       *time.Time  `json:"uploadedAt,omitempty"`
	ProcessedAt      *time.Time  `json:"processedAt,omitempty"`
}

// Resolution formats width x height, or "unknown" when not yet probed.
func (v *Video) Resolution() string {
	if v.Width != nil && v.Height != nil {
		return fmt.Sprintf("%dx%d", *v.Width, *v.Height)
	}
	return "unknown"
}

// FormatDuration renders a duration in seconds as HH:MM:SS.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "00:00:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// VideoListResponse is the paginated list payload.
type VideoListResponse struct {
	Videos  []Video `json:"videos"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"perPage"`
}

// UploadResponse is returned by POST /videos/upload.
type UploadResponse struct {
	VideoID         string `json:"videoId"`
	UploadSessionID string `json:"uploadSessionId"`
	TaskID          string `json:"taskId"`
	Status          string `json:"status"`
	Message         string `json:"message"`
}

// StatusResponse is returned by GET /videos/:id/status.
type StatusResponse struct {
	VideoID      string      `json:"videoId"`
	Status       VideoStatus `json:"status"`
	Progress     int         `json:"processingProgress"`
	ErrorMessage *string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	UploadedAt   *time.Time  `json:"uploadedAt,omitempty"`
	ProcessedAt  *time.Time  `json:"processedAt,omitempty"`
}

// BatchDeleteRequest is the payload for POST /videos/batch/delete.
type BatchDeleteRequest struct {
	VideoIDs []string `json:"videoIds"`
	Confirm  bool     `json:"confirm"`
}

// BatchDeleteResult is the per-video outcome of a batch delete.
type BatchDeleteResult struct {
	VideoID string `json:"videoId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchDeleteResponse summarizes a batch delete.
type BatchDeleteResponse struct {
	Results        []BatchDeleteResult `json:"results"`
	TotalRequested int                 `json:"totalRequested"`
	Successful     int                 `json:"successful"`
	Failed         int                 `json:"failed"`
}
