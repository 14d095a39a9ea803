package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/firdavsDev/video-streamer-go/internal/model"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// CreateUploadSession inserts a new upload session row.
func (r *SessionRepo) CreateUploadSession(ctx context.Context, s *model.UploadSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO upload_sessions (id, video_id, session_token, bytes_uploaded, upload_progress, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.VideoID, s.SessionToken, s.BytesUploaded, s.Progress, s.Status,
	)
	return err
}

// CompleteUploadSession marks the session done with final byte count.
func (r *SessionRepo) CompleteUploadSession(ctx context.Context, id string, bytesUploaded int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE upload_sessions
		SET bytes_uploaded = $2, upload_progress = 100, status = 'completed', completed_at = NOW()
		WHERE id = $1`, id, bytesUploaded)
	return err
}

// FailUploadSession records an upload failure.
func (r *SessionRepo) FailUploadSession(ctx context.Context, id, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE upload_sessions SET status = 'failed', error_message = $2 WHERE id = $1`, id, errMsg)
	return err
}

// CreateViewSession inserts a view session only when the (video_id,
// session_id) pair is new, reporting whether a row was created. Existing
// sessions keep their stored playback position untouched.
func (r *SessionRepo) CreateViewSession(ctx context.Context, s *model.ViewSession) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO view_sessions (id, video_id, session_id, ip_hash, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (video_id, session_id) DO NOTHING`,
		s.ID, s.VideoID, s.SessionID, s.IPHash, s.UserAgent,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertViewSession records or refreshes a viewer's playback position.
// Keyed on (video_id, session_id) so repeated progress updates stay one row.
func (r *SessionRepo) UpsertViewSession(ctx context.Context, s *model.ViewSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO view_sessions (id, video_id, session_id, ip_hash, user_agent,
		                           current_time_sec, completion_pct, is_completed, last_accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (video_id, session_id) DO UPDATE
		SET current_time_sec = EXCLUDED.current_time_sec,
		    completion_pct   = EXCLUDED.completion_pct,
		    is_completed     = view_sessions.is_completed OR EXCLUDED.is_completed,
		    last_accessed_at = NOW()`,
		s.ID, s.VideoID, s.SessionID, s.IPHash, s.UserAgent,
		s.CurrentTime, s.CompletionPct, s.IsCompleted,
	)
	return err
}

// FindViewSession returns the playback position for one viewer of one video.
func (r *SessionRepo) FindViewSession(ctx context.Context, videoID, sessionID string) (*model.ViewSession, error) {
	var s model.ViewSession
	err := r.pool.QueryRow(ctx, `
		SELECT id, video_id, session_id, ip_hash, user_agent,
		       current_time_sec, completion_pct, is_completed, created_at, last_accessed_at
		FROM view_sessions
		WHERE video_id = $1 AND session_id = $2`, videoID, sessionID).Scan(
		&s.ID, &s.VideoID, &s.SessionID, &s.IPHash, &s.UserAgent,
		&s.CurrentTime, &s.CompletionPct, &s.IsCompleted, &s.CreatedAt, &s.LastAccessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ViewWindow aggregates the view sessions created after the cutoff.
func (r *SessionRepo) ViewWindow(ctx context.Context, videoID string, since time.Time) (*model.ViewWindow, error) {
	query := `
		SELECT
			COUNT(*) AS sessions,
			COALESCE(SUM(current_time_sec), 0) AS watch_time,
			COUNT(*) FILTER (WHERE is_completed) AS completed,
			COUNT(*) FILTER (WHERE completion_pct >= 25) AS engaged
		FROM view_sessions
		WHERE video_id = $1 AND created_at >= $2`

	var w model.ViewWindow
	err := r.pool.QueryRow(ctx, query, videoID, since).Scan(
		&w.Sessions, &w.WatchTimeSeconds, &w.Completed, &w.Engaged,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// VideoStats aggregates view sessions into the per-video analytics payload.
func (r *SessionRepo) VideoStats(ctx context.Context, videoID string) (*model.VideoStats, error) {
	query := `
		SELECT
			COALESCE((SELECT view_count FROM videos WHERE id = $1), 0) AS total_views,
			COUNT(*) AS unique_viewers,
			COALESCE(SUM(current_time_sec), 0) AS total_watch_time,
			COALESCE(AVG(current_time_sec), 0) AS avg_watch_time,
			COALESCE(AVG(CASE WHEN is_completed THEN 100.0 ELSE completion_pct END), 0) AS completion_rate
		FROM view_sessions
		WHERE video_id = $1`

	stats := model.VideoStats{VideoID: videoID}
	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&stats.TotalViews, &stats.UniqueViewers, &stats.TotalWatchTime,
		&stats.AvgWatchTime, &stats.CompletionRate,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
