package model

import (
	"math"
	"time"
)

// UploadSession tracks a single upload attempt for a video.
type UploadSession struct {
	ID            string      `json:"id"`
	VideoID       string      `json:"videoId"`
	SessionToken  string      `json:"-"`
	BytesUploaded int64       `json:"bytesUploaded"`
	Progress      float64     `json:"uploadProgress"`
	Status        VideoStatus `json:"status"`
	ErrorMessage  *string     `json:"errorMessage,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty"`
}

// ViewSession tracks a viewer's playback position for resume support.
type ViewSession struct {
	ID             string    `json:"id"`
	VideoID        string    `json:"videoId"`
	SessionID      string    `json:"sessionId"`
	IPHash         *string   `json:"-"`
	UserAgent      *string   `json:"-"`
	CurrentTime    float64   `json:"currentTime"`
	CompletionPct  float64   `json:"completionPercentage"`
	IsCompleted    bool      `json:"isCompleted"`
	CreatedAt      time.Time `json:"-"`
	LastAccessedAt time.Time `json:"lastAccessed"`
}

// ResumePosition is where playback should restart.
func (s *ViewSession) ResumePosition() float64 {
	return s.CurrentTime
}

// CompletionPercentage computes watched percentage, capped at 100.
// A video counts as finished at 95% (matching the frontend player behaviour).
func CompletionPercentage(currentTime, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	pct := currentTime / duration * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

const finishedThresholdPct = 95.0

// IsFinished reports whether a completion percentage counts as a full watch.
func IsFinished(completionPct float64) bool {
	return completionPct >= finishedThresholdPct
}

// ProgressResponse is returned by the progress endpoints.
type ProgressResponse struct {
	VideoID        string  `json:"videoId"`
	CurrentTime    float64 `json:"currentTime"`
	CompletionPct  float64 `json:"completionPercentage"`
	ResumePosition float64 `json:"resumePosition"`
}

// VideoStats is the per-video analytics payload.
type VideoStats struct {
	VideoID        string  `json:"videoId"`
	TotalViews     int     `json:"totalViews"`
	UniqueViewers  int     `json:"uniqueViewers"`
	TotalWatchTime float64 `json:"totalWatchTimeSeconds"`
	AvgWatchTime   float64 `json:"avgWatchTimeSeconds"`
	CompletionRate float64 `json:"completionRate"`
	Downloads      int     `json:"downloads"`
	Resolution     string  `json:"resolution,omitempty"`
	Quality        string  `json:"quality,omitempty"`
}

// ViewWindow holds raw view-session aggregates for a time window.
type ViewWindow struct {
	Sessions         int
	WatchTimeSeconds float64
	Completed        int
	Engaged          int
}

// VideoAnalytics is the time-windowed analytics payload for one video.
type VideoAnalytics struct {
	VideoID             string  `json:"videoId"`
	Title               string  `json:"videoTitle"`
	Days                int     `json:"periodDays"`
	TotalViews          int     `json:"totalViews"`
	TotalWatchTimeHours float64 `json:"totalWatchTimeHours"`
	AvgWatchTimeMinutes float64 `json:"averageWatchTimeMinutes"`
	CompletionRate      float64 `json:"completionRate"`
	EngagementRate      float64 `json:"engagementRate"`
}

// AnalyticsFromWindow derives the rate metrics from raw window aggregates.
// Rates are percentages of sessions in the window; engagement counts viewers
// who got past the first quarter of the video.
func AnalyticsFromWindow(w ViewWindow) VideoAnalytics {
	a := VideoAnalytics{
		TotalViews:          w.Sessions,
		TotalWatchTimeHours: roundTo(w.WatchTimeSeconds/3600, 2),
	}
	if w.Sessions > 0 {
		a.AvgWatchTimeMinutes = roundTo(w.WatchTimeSeconds/float64(w.Sessions)/60, 2)
		a.CompletionRate = roundTo(float64(w.Completed)/float64(w.Sessions)*100, 2)
		a.EngagementRate = roundTo(float64(w.Engaged)/float64(w.Sessions)*100, 2)
	}
	return a
}

func roundTo(v float64, places int) float64 {
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	return math.Round(v*scale) / scale
}

// DashboardSummary aggregates library-wide counters.
type DashboardSummary struct {
	TotalVideos      int     `json:"totalVideos"`
	CompletedVideos  int     `json:"completedVideos"`
	ProcessingVideos int     `json:"processingVideos"`
	FailedVideos     int     `json:"failedVideos"`
	TotalViews       int     `json:"totalViews"`
	TotalStorageMB   float64 `json:"totalStorageMb"`
}

// DashboardResponse is returned by GET /videos/dashboard/overview.
type DashboardResponse struct {
	Summary       DashboardSummary `json:"summary"`
	RecentUploads []Video          `json:"recentUploads"`
	Period        string           `json:"period"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}
