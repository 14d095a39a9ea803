package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/firdavsDev/video-streamer-go/internal/model"
	"github.com/firdavsDev/video-streamer-go/internal/repository"
)

// Analytics window bounds for the per-video analytics endpoint.
const (
	DefaultAnalyticsDays = 30
	MaxAnalyticsDays     = 365
)

// videoReader is the slice of VideoRepo the analytics service uses.
type videoReader interface {
	FindByID(ctx context.Context, id string) (*model.Video, error)
	IncrementViewCount(ctx context.Context, id string) error
	Summary(ctx context.Context) (*model.DashboardSummary, error)
	Recent(ctx context.Context, limit int) ([]model.Video, error)
}

// viewSessionStore is the slice of SessionRepo the analytics service uses.
type viewSessionStore interface {
	CreateViewSession(ctx context.Context, s *model.ViewSession) (bool, error)
	UpsertViewSession(ctx context.Context, s *model.ViewSession) error
	FindViewSession(ctx context.Context, videoID, sessionID string) (*model.ViewSession, error)
	VideoStats(ctx context.Context, videoID string) (*model.VideoStats, error)
	ViewWindow(ctx context.Context, videoID string, since time.Time) (*model.ViewWindow, error)
}

type AnalyticsService struct {
	videos   videoReader
	sessions viewSessionStore
	cache    *CacheService
}

func NewAnalyticsService(videos *repository.VideoRepo, sessions *repository.SessionRepo, cache *CacheService) *AnalyticsService {
	return &AnalyticsService{videos: videos, sessions: sessions, cache: cache}
}

// RecordView registers a playback start. The view counter is bumped only when
// the (video, session) pair is new; a returning session keeps its stored
// resume position and adds no view. Raw IPs are hashed before storage.
func (a *AnalyticsService) RecordView(ctx context.Context, videoID, sessionID, ip, userAgent string) error {
	ipHash := hashIP(ip)
	var ua *string
	if userAgent != "" {
		if len(userAgent) > 256 {
			userAgent = userAgent[:256]
		}
		ua = &userAgent
	}

	created, err := a.sessions.CreateViewSession(ctx, &model.ViewSession{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		SessionID: sessionID,
		IPHash:    &ipHash,
		UserAgent: ua,
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	return a.videos.IncrementViewCount(ctx, videoID)
}

// UpdateProgress stores a viewer's playback position and returns the
// progress payload with the recomputed completion percentage.
func (a *AnalyticsService) UpdateProgress(ctx context.Context, videoID, sessionID string, currentTime float64) (*model.ProgressResponse, error) {
	v, err := a.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	var duration float64
	if v.Duration != nil {
		duration = *v.Duration
	}
	pct := model.CompletionPercentage(currentTime, duration)

	err = a.sessions.UpsertViewSession(ctx, &model.ViewSession{
		ID:            uuid.NewString(),
		VideoID:       videoID,
		SessionID:     sessionID,
		CurrentTime:   currentTime,
		CompletionPct: pct,
		IsCompleted:   model.IsFinished(pct),
	})
	if err != nil {
		return nil, err
	}

	return &model.ProgressResponse{
		VideoID:        videoID,
		CurrentTime:    currentTime,
		CompletionPct:  pct,
		ResumePosition: currentTime,
	}, nil
}

// GetProgress returns the stored resume position, or zeroes when the viewer
// has no session yet.
func (a *AnalyticsService) GetProgress(ctx context.Context, videoID, sessionID string) (*model.ProgressResponse, error) {
	s, err := a.sessions.FindViewSession(ctx, videoID, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.ProgressResponse{VideoID: videoID}, nil
		}
		return nil, err
	}
	return &model.ProgressResponse{
		VideoID:        videoID,
		CurrentTime:    s.CurrentTime,
		CompletionPct:  s.CompletionPct,
		ResumePosition: s.ResumePosition(),
	}, nil
}

// VideoStats returns per-video analytics aggregates enriched with the
// video's probed resolution and quality tier.
func (a *AnalyticsService) VideoStats(ctx context.Context, videoID string) (*model.VideoStats, error) {
	stats, err := a.sessions.VideoStats(ctx, videoID)
	if err != nil {
		return nil, err
	}

	v, err := a.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	stats.Downloads = v.DownloadCount
	if v.Width != nil && v.Height != nil {
		stats.Resolution = v.Resolution()
		stats.Quality = string(model.QualityForHeight(*v.Height))
	}
	return stats, nil
}

// Analytics returns view metrics for the last N days of one video.
func (a *AnalyticsService) Analytics(ctx context.Context, videoID string, days int) (*model.VideoAnalytics, error) {
	if days < 1 {
		days = DefaultAnalyticsDays
	}
	if days > MaxAnalyticsDays {
		days = MaxAnalyticsDays
	}

	v, err := a.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	window, err := a.sessions.ViewWindow(ctx, videoID, since)
	if err != nil {
		return nil, err
	}

	analytics := model.AnalyticsFromWindow(*window)
	analytics.VideoID = videoID
	analytics.Title = v.Title
	analytics.Days = days
	return &analytics, nil
}

// Dashboard builds the overview payload, cache-aside with a short TTL.
func (a *AnalyticsService) Dashboard(ctx context.Context) (*model.DashboardResponse, error) {
	if cached, err := a.cache.GetDashboard(ctx); err == nil && cached != nil {
		var resp model.DashboardResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
	}

	summary, err := a.videos.Summary(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := a.videos.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []model.Video{}
	}

	resp := &model.DashboardResponse{
		Summary:       *summary,
		RecentUploads: recent,
		Period:        "all_time",
		GeneratedAt:   time.Now().UTC(),
	}
	if err := a.cache.SetDashboard(ctx, resp); err != nil {
		log.Printf("analytics: cache dashboard: %v", err)
	}
	return resp, nil
}

// hashIP produces a short irreversible hash so raw viewer IPs are never stored.
func hashIP(ip string) string {
	h := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(h[:])[:16]
}
