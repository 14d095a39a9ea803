package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/firdavsDev/video-streamer-go/internal/model"
)

const videoColumns = `id, title, description, filename, original_filename, object_key,
	       file_size, file_type, file_extension, duration, width, height, fps, bitrate, codec,
	       status, processing_progress, error_message, thumbnail_key, thumbnail_ready,
	       view_count, download_count, created_at, updated_at, uploaded_at, processed_at`

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

func scanVideo(row interface{ Scan(...any) error }) (*model.Video, error) {
	var v model.Video
	err := row.Scan(
		&v.ID, &v.Title, &v.Description, &v.Filename, &v.OriginalFilename, &v.ObjectKey,
		&v.FileSize, &v.FileType, &v.FileExtension, &v.Duration, &v.Width, &v.Height, &v.FPS, &v.Bitrate, &v.Codec,
		&v.Status, &v.Progress, &v.ErrorMessage, &v.ThumbnailKey, &v.ThumbnailReady,
		&v.ViewCount, &v.DownloadCount, &v.CreatedAt, &v.UpdatedAt, &v.UploadedAt, &v.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Insert creates a new video row in pending state.
func (r *VideoRepo) Insert(ctx context.Context, v *model.Video) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO videos (id, title, description, filename, original_filename, object_key,
		                    file_size, file_type, file_extension, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.Title, v.Description, v.Filename, v.OriginalFilename, v.ObjectKey,
		v.FileSize, v.FileType, v.FileExtension, v.Status,
	)
	return err
}

// FindByID returns a single video by ID, excluding deleted ones.
func (r *VideoRepo) FindByID(ctx context.Context, id string) (*model.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE id = $1 AND status <> 'deleted'`, videoColumns)
	return scanVideo(r.pool.QueryRow(ctx, query, id))
}

// List returns videos matching the optional status and search filters,
// newest first, along with the total count for pagination.
func (r *VideoRepo) List(ctx context.Context, skip, limit int, status *model.VideoStatus, search string) ([]model.Video, int, error) {
	where := []string{"status <> 'deleted'"}
	args := []any{}

	if status != nil {
		args = append(args, *status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM videos WHERE %s`, cond)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, skip)
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		videoColumns, cond, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, err
		}
		videos = append(videos, *v)
	}
	return videos, total, rows.Err()
}

// Search matches the title and description against a query string.
func (r *VideoRepo) Search(ctx context.Context, query string, limit, offset int) ([]model.Video, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM videos
		WHERE status = 'completed' AND (title ILIKE $1 OR description ILIKE $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, videoColumns)

	rows, err := r.pool.Query(ctx, sql, "%"+query+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

// UpdateStatus moves a video to a new status and progress checkpoint.
func (r *VideoRepo) UpdateStatus(ctx context.Context, id string, status model.VideoStatus, progress int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE videos SET status = $2, processing_progress = $3, updated_at = NOW()
		WHERE id = $1`, id, status, progress)
	return err
}

// MarkUploaded records that the object landed in storage.
func (r *VideoRepo) MarkUploaded(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE videos SET uploaded_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// MarkCompleted finalizes processing.
func (r *VideoRepo) MarkCompleted(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE videos
		SET status = 'completed', processing_progress = 100, error_message = NULL,
		    processed_at = NOW(), updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

// MarkFailed records a processing failure with its error message.
func (r *VideoRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE videos SET status = 'failed', error_message = $2, updated_at = NOW()
		WHERE id = $1`, id, errMsg)
	return err
}

// UpdateMetadata stores the probed media properties.
func (r *VideoRepo) UpdateMetadata(ctx context.Context, id string, duration float64, width, height int, fps float64, bitrate int, codec string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE videos
		SET duration = $2, width = $3, height = $4, fps = $5, bitrate = $6, codec = $7, updated_at = NOW()
		WHERE id = $1`, id, duration, width, height, fps, bitrate, codec)
	return err
}

// SetThumbnail records the generated thumbnail object key.
func (r *VideoRepo) SetThumbnail(ctx context.Context, id, thumbnailKey string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE videos SET thumbnail_key = $2, thumbnail_ready = true, updated_at = NOW()
		WHERE id = $1`, id, thumbnailKey)
	return err
}

// SoftDelete marks a video deleted. The object cleanup happens asynchronously.
func (r *VideoRepo) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE videos SET status = 'deleted', updated_at = NOW()
		WHERE id = $1 AND status <> 'deleted'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("video %s not found", id)
	}
	return nil
}

// IncrementViewCount bumps the denormalized view counter.
func (r *VideoRepo) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE videos SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

// IncrementDownloadCount bumps the download counter when a direct link is issued.
func (r *VideoRepo) IncrementDownloadCount(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE videos SET download_count = download_count + 1 WHERE id = $1`, id)
	return err
}

// Recent returns the most recently created videos.
func (r *VideoRepo) Recent(ctx context.Context, limit int) ([]model.Video, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM videos WHERE status <> 'deleted'
		ORDER BY created_at DESC LIMIT $1`, videoColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

// Recommendations suggests completed videos to watch after the given one:
// similar duration (within 20%) ordered by view count, padded with popular
// videos when too few match.
func (r *VideoRepo) Recommendations(ctx context.Context, videoID string, limit int) ([]model.Video, error) {
	v, err := r.FindByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	var videos []model.Video
	seen := map[string]bool{videoID: true}

	if v.Duration != nil && *v.Duration > 0 {
		lo := *v.Duration * 0.8
		hi := *v.Duration * 1.2
		query := fmt.Sprintf(`
			SELECT %s FROM videos
			WHERE status = 'completed' AND id <> $1 AND duration BETWEEN $2 AND $3
			ORDER BY view_count DESC LIMIT $4`, videoColumns)

		rows, err := r.pool.Query(ctx, query, videoID, lo, hi, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			rec, err := scanVideo(rows)
			if err != nil {
				return nil, err
			}
			videos = append(videos, *rec)
			seen[rec.ID] = true
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	if len(videos) < limit {
		query := fmt.Sprintf(`
			SELECT %s FROM videos
			WHERE status = 'completed' AND id <> $1
			ORDER BY view_count DESC, created_at DESC LIMIT $2`, videoColumns)

		rows, err := r.pool.Query(ctx, query, videoID, limit+len(videos))
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			rec, err := scanVideo(rows)
			if err != nil {
				return nil, err
			}
			if seen[rec.ID] {
				continue
			}
			videos = append(videos, *rec)
			seen[rec.ID] = true
			if len(videos) >= limit {
				break
			}
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return videos, nil
}

// CompletedObjectKeys returns id and object key for every completed video,
// used by the storage audit task.
func (r *VideoRepo) CompletedObjectKeys(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, object_key FROM videos WHERE status = 'completed'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]string)
	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, err
		}
		keys[id] = key
	}
	return keys, rows.Err()
}

// Summary computes library-wide dashboard counters in a single query.
func (r *VideoRepo) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status <> 'deleted') AS total,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status IN ('pending', 'uploading', 'processing')) AS processing,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COALESCE(SUM(view_count) FILTER (WHERE status <> 'deleted'), 0) AS views,
			COALESCE(SUM(file_size) FILTER (WHERE status <> 'deleted'), 0) AS bytes
		FROM videos`

	var s model.DashboardSummary
	var bytes int64
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.TotalVideos, &s.CompletedVideos, &s.ProcessingVideos, &s.FailedVideos,
		&s.TotalViews, &bytes,
	)
	if err != nil {
		return nil, err
	}
	s.TotalStorageMB = float64(bytes) / (1024 * 1024)
	return &s, nil
}

// StaleProcessing returns videos stuck in processing longer than the cutoff.
func (r *VideoRepo) StaleProcessing(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM videos WHERE status = 'processing' AND updated_at < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
