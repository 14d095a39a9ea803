package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/firdavsDev/video-streamer-go/internal/model"
)

type fakeVideoReader struct {
	video *model.Video
	views int
}

func (f *fakeVideoReader) FindByID(ctx context.Context, id string) (*model.Video, error) {
	if f.video == nil || f.video.ID != id {
		return nil, pgx.ErrNoRows
	}
	return f.video, nil
}

func (f *fakeVideoReader) IncrementViewCount(ctx context.Context, id string) error {
	f.views++
	return nil
}

func (f *fakeVideoReader) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	return &model.DashboardSummary{}, nil
}

func (f *fakeVideoReader) Recent(ctx context.Context, limit int) ([]model.Video, error) {
	return nil, nil
}

type fakeSessionStore struct {
	sessions map[string]*model.ViewSession
	window   model.ViewWindow
	since    time.Time
}

func sessionKey(videoID, sessionID string) string {
	return videoID + "|" + sessionID
}

func (f *fakeSessionStore) CreateViewSession(ctx context.Context, s *model.ViewSession) (bool, error) {
	key := sessionKey(s.VideoID, s.SessionID)
	if _, ok := f.sessions[key]; ok {
		return false, nil
	}
	stored := *s
	f.sessions[key] = &stored
	return true, nil
}

func (f *fakeSessionStore) UpsertViewSession(ctx context.Context, s *model.ViewSession) error {
	key := sessionKey(s.VideoID, s.SessionID)
	if existing, ok := f.sessions[key]; ok {
		existing.CurrentTime = s.CurrentTime
		existing.CompletionPct = s.CompletionPct
		existing.IsCompleted = existing.IsCompleted || s.IsCompleted
		return nil
	}
	stored := *s
	f.sessions[key] = &stored
	return nil
}

func (f *fakeSessionStore) FindViewSession(ctx context.Context, videoID, sessionID string) (*model.ViewSession, error) {
	if s, ok := f.sessions[sessionKey(videoID, sessionID)]; ok {
		return s, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSessionStore) VideoStats(ctx context.Context, videoID string) (*model.VideoStats, error) {
	return &model.VideoStats{VideoID: videoID}, nil
}

func (f *fakeSessionStore) ViewWindow(ctx context.Context, videoID string, since time.Time) (*model.ViewWindow, error) {
	f.since = since
	w := f.window
	return &w, nil
}

func testAnalyticsService() (*AnalyticsService, *fakeVideoReader, *fakeSessionStore) {
	duration := 1000.0
	videos := &fakeVideoReader{video: &model.Video{ID: "vid-1", Title: "Clip", Duration: &duration}}
	sessions := &fakeSessionStore{sessions: make(map[string]*model.ViewSession)}
	return &AnalyticsService{videos: videos, sessions: sessions}, videos, sessions
}

func TestRecordView_NewSessionCountsOnce(t *testing.T) {
	svc, videos, _ := testAnalyticsService()
	ctx := context.Background()

	if err := svc.RecordView(ctx, "vid-1", "sess-a", "10.0.0.1", "player/1.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if videos.views != 1 {
		t.Errorf("views = %d, want 1", videos.views)
	}
}

func TestRecordView_RepeatedStartsDoNotInflateViews(t *testing.T) {
	svc, videos, _ := testAnalyticsService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := svc.RecordView(ctx, "vid-1", "sess-a", "10.0.0.1", "player/1.0"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if videos.views != 1 {
		t.Errorf("views = %d after 5 restarts by one session, want 1", videos.views)
	}

	if err := svc.RecordView(ctx, "vid-1", "sess-b", "10.0.0.2", "player/1.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if videos.views != 2 {
		t.Errorf("views = %d after a second session, want 2", videos.views)
	}
}

func TestRecordView_RestartKeepsResumePosition(t *testing.T) {
	svc, _, _ := testAnalyticsService()
	ctx := context.Background()

	if err := svc.RecordView(ctx, "vid-1", "sess-a", "10.0.0.1", "player/1.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.UpdateProgress(ctx, "vid-1", "sess-a", 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The viewer closes the tab and starts playback again.
	if err := svc.RecordView(ctx, "vid-1", "sess-a", "10.0.0.1", "player/1.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	progress, err := svc.GetProgress(ctx, "vid-1", "sess-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if progress.ResumePosition != 500 {
		t.Errorf("resume position = %v after restart, want 500", progress.ResumePosition)
	}
	if progress.CompletionPct != 50 {
		t.Errorf("completion = %v after restart, want 50", progress.CompletionPct)
	}
}

func TestUpdateProgress_OverwritesPosition(t *testing.T) {
	svc, _, _ := testAnalyticsService()
	ctx := context.Background()

	if _, err := svc.UpdateProgress(ctx, "vid-1", "sess-a", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := svc.UpdateProgress(ctx, "vid-1", "sess-a", 950)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CurrentTime != 950 {
		t.Errorf("current time = %v, want 950", resp.CurrentTime)
	}
	if !model.IsFinished(resp.CompletionPct) {
		t.Errorf("95%% watched should count as finished, got %v%%", resp.CompletionPct)
	}
}

func TestAnalytics_WindowClamped(t *testing.T) {
	svc, _, sessions := testAnalyticsService()
	ctx := context.Background()

	a, err := svc.Analytics(ctx, "vid-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Days != DefaultAnalyticsDays {
		t.Errorf("days = %d for zero input, want default %d", a.Days, DefaultAnalyticsDays)
	}

	a, err = svc.Analytics(ctx, "vid-1", 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Days != MaxAnalyticsDays {
		t.Errorf("days = %d for oversized input, want cap %d", a.Days, MaxAnalyticsDays)
	}
	if sessions.since.IsZero() {
		t.Error("window cutoff was not passed to the session store")
	}
}

func TestAnalytics_Metrics(t *testing.T) {
	svc, _, sessions := testAnalyticsService()
	sessions.window = model.ViewWindow{
		Sessions:         4,
		WatchTimeSeconds: 7200,
		Completed:        1,
		Engaged:          3,
	}

	a, err := svc.Analytics(context.Background(), "vid-1", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.TotalViews != 4 {
		t.Errorf("total views = %d, want 4", a.TotalViews)
	}
	if a.TotalWatchTimeHours != 2 {
		t.Errorf("watch time hours = %v, want 2", a.TotalWatchTimeHours)
	}
	if a.AvgWatchTimeMinutes != 30 {
		t.Errorf("avg watch minutes = %v, want 30", a.AvgWatchTimeMinutes)
	}
	if a.CompletionRate != 25 {
		t.Errorf("completion rate = %v, want 25", a.CompletionRate)
	}
	if a.EngagementRate != 75 {
		t.Errorf("engagement rate = %v, want 75", a.EngagementRate)
	}
	if a.Title != "Clip" {
		t.Errorf("title = %q, want Clip", a.Title)
	}
}
