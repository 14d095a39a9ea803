package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/firdavsDev/video-streamer-go/internal/model"
	"github.com/firdavsDev/video-streamer-go/internal/queue"
	"github.com/firdavsDev/video-streamer-go/internal/repository"
	"github.com/firdavsDev/video-streamer-go/internal/storage"
)

var (
	ErrVideoNotFound = errors.New("video not found")
	ErrVideoNotReady = errors.New("video not ready for streaming")
)

// Presigned URL expiry bounds.
const (
	MinPresignExpiry = time.Minute
	MaxPresignExpiry = 24 * time.Hour
)

type VideoService struct {
	videos   *repository.VideoRepo
	sessions *repository.SessionRepo
	store    *storage.Store
	tasks    *queue.Client
	cache    *CacheService
}

func NewVideoService(videos *repository.VideoRepo, sessions *repository.SessionRepo, store *storage.Store, tasks *queue.Client, cache *CacheService) *VideoService {
	return &VideoService{
		videos:   videos,
		sessions: sessions,
		store:    store,
		tasks:    tasks,
		cache:    cache,
	}
}

// UploadInput carries the validated multipart fields into the service.
type UploadInput struct {
	Title       string
	Description string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload creates the video record, streams the file into object storage,
// and enqueues background processing. The object key is UUID-based so the
// original filename never reaches storage.
func (s *VideoService) Upload(ctx context.Context, in UploadInput) (*model.UploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(in.Filename))
	videoID := uuid.NewString()
	objectKey := fmt.Sprintf("videos/%s%s", videoID, ext)

	var desc *string
	if in.Description != "" {
		desc = &in.Description
	}
	v := &model.Video{
		ID:               videoID,
		Title:            in.Title,
		Description:      desc,
		Filename:         filepath.Base(objectKey),
		OriginalFilename: filepath.Base(in.Filename),
		ObjectKey:        objectKey,
		FileSize:         in.Size,
		FileType:         in.ContentType,
		FileExtension:    ext,
		Status:           model.StatusPending,
	}
	if err := s.videos.Insert(ctx, v); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	session := &model.UploadSession{
		ID:           uuid.NewString(),
		VideoID:      videoID,
		SessionToken: uuid.NewString(),
		Status:       model.StatusUploading,
	}
	if err := s.sessions.CreateUploadSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create upload session: %w", err)
	}

	if err := s.videos.UpdateStatus(ctx, videoID, model.StatusUploading, 0); err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, objectKey, in.Body, in.Size, in.ContentType); err != nil {
		if ferr := s.videos.MarkFailed(ctx, videoID, "upload to storage failed"); ferr != nil {
			log.Printf("video: mark failed after storage error: %v", ferr)
		}
		if ferr := s.sessions.FailUploadSession(ctx, session.ID, err.Error()); ferr != nil {
			log.Printf("video: fail upload session: %v", ferr)
		}
		return nil, fmt.Errorf("store upload: %w", err)
	}

	if err := s.sessions.CompleteUploadSession(ctx, session.ID, in.Size); err != nil {
		log.Printf("video: complete upload session: %v", err)
	}
	if err := s.videos.MarkUploaded(ctx, videoID); err != nil {
		log.Printf("video: mark uploaded: %v", err)
	}

	task := queue.NewTask(queue.TaskProcessUpload, videoID, objectKey)
	if err := s.tasks.Enqueue(ctx, task); err != nil {
		// Storage already holds the object; the scan task will pick the
		// video up later, so this is not fatal for the client.
		log.Printf("video: enqueue processing for %s: %v", videoID, err)
	}

	return &model.UploadResponse{
		VideoID:         videoID,
		UploadSessionID: session.ID,
		TaskID:          task.ID,
		Status:          string(model.StatusUploading),
		Message:         fmt.Sprintf("Video upload started. Task ID: %s", task.ID),
	}, nil
}

// Get returns a single video, serving from cache when possible.
func (s *VideoService) Get(ctx context.Context, id string) (*model.Video, error) {
	if cached, err := s.cache.GetVideo(ctx, id); err == nil && cached != nil {
		var v model.Video
		if err := json.Unmarshal(cached, &v); err == nil {
			return &v, nil
		}
	}

	v, err := s.videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	if err := s.cache.SetVideo(ctx, id, v); err != nil {
		log.Printf("video: cache set %s: %v", id, err)
	}
	return v, nil
}

// GetForStreaming returns a video only when it is completed.
func (s *VideoService) GetForStreaming(ctx context.Context, id string) (*model.Video, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != model.StatusCompleted {
		return nil, ErrVideoNotReady
	}
	return v, nil
}

// List returns a page of videos with total count.
func (s *VideoService) List(ctx context.Context, skip, limit int, status *model.VideoStatus, search string) (*model.VideoListResponse, error) {
	videos, total, err := s.videos.List(ctx, skip, limit, status, search)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return &model.VideoListResponse{
		Videos:  videos,
		Total:   total,
		Page:    skip/limit + 1,
		PerPage: limit,
	}, nil
}

// Search matches completed videos against a free-text query.
func (s *VideoService) Search(ctx context.Context, query string, limit, offset int) ([]model.Video, error) {
	videos, err := s.videos.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return videos, nil
}

// Recommendation list bounds.
const (
	DefaultRecommendations = 5
	MaxRecommendations     = 20
)

// Recommendations suggests videos to watch after the given one.
func (s *VideoService) Recommendations(ctx context.Context, id string, limit int) ([]model.Video, error) {
	if limit < 1 {
		limit = DefaultRecommendations
	}
	if limit > MaxRecommendations {
		limit = MaxRecommendations
	}

	videos, err := s.videos.Recommendations(ctx, id, limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return videos, nil
}

// Status returns the processing status payload.
func (s *VideoService) Status(ctx context.Context, id string) (*model.StatusResponse, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.StatusResponse{
		VideoID:      v.ID,
		Status:       v.Status,
		Progress:     v.Progress,
		ErrorMessage: v.ErrorMessage,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
		UploadedAt:   v.UploadedAt,
		ProcessedAt:  v.ProcessedAt,
	}, nil
}

// Delete soft-deletes the video row and enqueues object cleanup.
func (s *VideoService) Delete(ctx context.Context, id string) error {
	v, err := s.videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVideoNotFound
		}
		return err
	}

	if err := s.videos.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.InvalidateVideo(ctx, id); err != nil {
		log.Printf("video: cache invalidate %s: %v", id, err)
	}

	keys := []string{v.ObjectKey}
	if v.ThumbnailKey != nil {
		keys = append(keys, *v.ThumbnailKey)
	}
	if err := s.tasks.Enqueue(ctx, queue.NewTask(queue.TaskCleanupObjects, id, keys...)); err != nil {
		log.Printf("video: enqueue cleanup for %s: %v", id, err)
	}
	return nil
}

// BatchDelete deletes several videos, reporting per-video outcomes.
func (s *VideoService) BatchDelete(ctx context.Context, ids []string) *model.BatchDeleteResponse {
	resp := &model.BatchDeleteResponse{TotalRequested: len(ids)}
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			resp.Failed++
			resp.Results = append(resp.Results, model.BatchDeleteResult{
				VideoID: id, Success: false, Error: err.Error(),
			})
			continue
		}
		resp.Successful++
		resp.Results = append(resp.Results, model.BatchDeleteResult{VideoID: id, Success: true})
	}
	return resp
}

// PresignedURL returns a time-limited direct download URL for a completed video.
func (s *VideoService) PresignedURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	if expiry < MinPresignExpiry {
		expiry = MinPresignExpiry
	}
	if expiry > MaxPresignExpiry {
		expiry = MaxPresignExpiry
	}

	v, err := s.GetForStreaming(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, v.ObjectKey, expiry)
	if err != nil {
		return "", err
	}

	// Issuing a direct link counts as a download.
	if err := s.videos.IncrementDownloadCount(ctx, id); err != nil {
		log.Printf("video: download count %s: %v", id, err)
	}
	if err := s.cache.InvalidateVideo(ctx, id); err != nil {
		log.Printf("video: cache invalidate %s: %v", id, err)
	}
	return url, nil
}

// RequestThumbnail enqueues thumbnail generation for a video that has none.
func (s *VideoService) RequestThumbnail(ctx context.Context, id string) (string, error) {
	task := queue.NewTask(queue.TaskGenerateThumbnail, id)
	if err := s.tasks.Enqueue(ctx, task); err != nil {
		return "", err
	}
	return task.ID, nil
}
