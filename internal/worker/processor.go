package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/firdavsDev/video-streamer-go/internal/media"
	"github.com/firdavsDev/video-streamer-go/internal/model"
	"github.com/firdavsDev/video-streamer-go/internal/queue"
	"github.com/firdavsDev/video-streamer-go/internal/repository"
	"github.com/firdavsDev/video-streamer-go/internal/service"
	"github.com/firdavsDev/video-streamer-go/internal/storage"
)

const dequeueTimeout = 5 * time.Second

// Processor consumes tasks from the queue and runs the video processing
// pipeline: metadata extraction, thumbnail generation, status transitions.
type Processor struct {
	videos      *repository.VideoRepo
	store       *storage.Store
	tasks       *queue.Client
	cache       *service.CacheService
	concurrency int

	// ObserveTask is an optional hook wired to metrics at startup, called
	// with the duration of each successfully handled task.
	ObserveTask func(taskType string, d time.Duration)
}

func NewProcessor(videos *repository.VideoRepo, store *storage.Store, tasks *queue.Client, cache *service.CacheService, concurrency int) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Processor{
		videos:      videos,
		store:       store,
		tasks:       tasks,
		cache:       cache,
		concurrency: concurrency,
	}
}

// Start runs the consumer pool until the context is cancelled.
func (p *Processor) Start(ctx context.Context) {
	log.Printf("worker: starting %d consumers", p.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.consumeLoop(ctx, n)
		}(i)
	}
	wg.Wait()
	log.Println("worker: all consumers stopped")
}

func (p *Processor) consumeLoop(ctx context.Context, n int) {
	for {
		task, err := p.tasks.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("worker[%d]: stopping (context cancelled)", n)
				return
			}
			log.Printf("worker[%d]: dequeue error, retrying in 5s: %v", n, err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		if task == nil {
			continue
		}

		start := time.Now()
		if err := p.handle(ctx, task); err != nil {
			log.Printf("worker[%d]: task %s (%s) attempt %d failed: %v",
				n, task.ID, task.Type, task.Attempt, err)
			if rerr := p.tasks.Retry(ctx, task); rerr != nil {
				log.Printf("worker[%d]: retry scheduling failed: %v", n, rerr)
			}
			continue
		}
		elapsed := time.Since(start)
		if p.ObserveTask != nil {
			p.ObserveTask(task.Type, elapsed)
		}
		log.Printf("worker[%d]: task %s (%s) done in %s", n, task.ID, task.Type, elapsed)
	}
}

func (p *Processor) handle(ctx context.Context, t *queue.Task) error {
	switch t.Type {
	case queue.TaskProcessUpload:
		return p.processUpload(ctx, t)
	case queue.TaskGenerateThumbnail:
		return p.generateThumbnail(ctx, t.VideoID)
	case queue.TaskCleanupObjects:
		return p.cleanupObjects(ctx, t.ObjectKeys)
	case queue.TaskScanStorage:
		return p.scanStorage(ctx)
	default:
		// Unknown types are dropped, not retried.
		log.Printf("worker: dropping unknown task type %q", t.Type)
		return nil
	}
}

// processUpload runs the full pipeline with the progress checkpoints the
// status endpoint reports: 10 processing, 50 metadata, 80 thumbnail, 100 done.
func (p *Processor) processUpload(ctx context.Context, t *queue.Task) error {
	videoID := t.VideoID
	v, err := p.videos.FindByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("load video %s: %w", videoID, err)
	}
	if v.Status == model.StatusCompleted || v.Status == model.StatusDeleted {
		return nil
	}
	// Already-processing videos are resumed, not rejected; scanStorage
	// requeues them when a crashed worker left them stuck.
	if v.Status != model.StatusProcessing && !model.CanTransition(v.Status, model.StatusProcessing) {
		return fmt.Errorf("video %s in %s cannot enter processing", videoID, v.Status)
	}

	if err := p.videos.UpdateStatus(ctx, videoID, model.StatusProcessing, 10); err != nil {
		return err
	}
	p.invalidate(ctx, videoID)

	tmpPath, err := p.download(ctx, v.ObjectKey, v.FileExtension)
	if err != nil {
		return p.fail(ctx, videoID, fmt.Errorf("download: %w", err))
	}
	defer os.Remove(tmpPath)

	meta, err := media.Probe(tmpPath)
	if err != nil {
		return p.fail(ctx, videoID, fmt.Errorf("probe: %w", err))
	}
	err = p.videos.UpdateMetadata(ctx, videoID, meta.Duration, meta.Width, meta.Height, meta.FPS, meta.Bitrate, meta.Codec)
	if err != nil {
		return err
	}
	if err := p.videos.UpdateStatus(ctx, videoID, model.StatusProcessing, 50); err != nil {
		return err
	}

	if err := p.storeThumbnail(ctx, videoID, tmpPath, meta.Duration); err != nil {
		// A missing thumbnail should not fail the whole upload.
		log.Printf("worker: thumbnail for %s: %v", videoID, err)
	}
	if err := p.videos.UpdateStatus(ctx, videoID, model.StatusProcessing, 80); err != nil {
		return err
	}

	if err := p.videos.MarkCompleted(ctx, videoID); err != nil {
		return err
	}
	p.invalidate(ctx, videoID)
	return nil
}

// generateThumbnail regenerates just the thumbnail for an existing video.
func (p *Processor) generateThumbnail(ctx context.Context, videoID string) error {
	v, err := p.videos.FindByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("load video %s: %w", videoID, err)
	}

	tmpPath, err := p.download(ctx, v.ObjectKey, v.FileExtension)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer os.Remove(tmpPath)

	var duration float64
	if v.Duration != nil {
		duration = *v.Duration
	}
	if err := p.storeThumbnail(ctx, videoID, tmpPath, duration); err != nil {
		return err
	}
	p.invalidate(ctx, videoID)
	return nil
}

func (p *Processor) cleanupObjects(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := p.store.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// scanStorage audits the database against object storage: completed videos
// with missing objects are marked failed, objects with no owning record are
// reported as orphans, and videos stuck in processing are requeued.
func (p *Processor) scanStorage(ctx context.Context) error {
	keys, err := p.videos.CompletedObjectKeys(ctx)
	if err != nil {
		return err
	}

	missing := 0
	for videoID, key := range keys {
		if p.store.Exists(ctx, key) {
			continue
		}
		missing++
		log.Printf("worker: object %s missing for video %s", key, videoID)
		if err := p.videos.MarkFailed(ctx, videoID, "object missing from storage"); err != nil {
			log.Printf("worker: mark failed %s: %v", videoID, err)
		}
		p.invalidate(ctx, videoID)
	}

	orphans := 0
	if stored, err := p.store.List(ctx, "videos/"); err != nil {
		log.Printf("worker: listing stored objects: %v", err)
	} else {
		owned := make(map[string]bool, len(keys))
		for _, key := range keys {
			owned[key] = true
		}
		for _, key := range stored {
			if !owned[key] {
				orphans++
				log.Printf("worker: orphaned object %s has no completed video", key)
			}
		}
	}

	// Videos stuck in processing for over an hour likely lost their task
	// (worker crash mid-pipeline). Requeue them.
	stale, err := p.videos.StaleProcessing(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		log.Printf("worker: finding stale processing videos: %v", err)
	}
	for _, videoID := range stale {
		log.Printf("worker: requeueing stale processing video %s", videoID)
		if err := p.tasks.Enqueue(ctx, queue.NewTask(queue.TaskProcessUpload, videoID)); err != nil {
			log.Printf("worker: requeue %s: %v", videoID, err)
		}
	}

	log.Printf("worker: storage scan complete, %d videos checked, %d missing, %d orphaned, %d requeued",
		len(keys), missing, orphans, len(stale))
	return nil
}

// download copies an object to a temp file for ffmpeg, which needs a path.
func (p *Processor) download(ctx context.Context, objectKey, ext string) (string, error) {
	obj, err := p.store.Get(ctx, objectKey)
	if err != nil {
		return "", err
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "video-*"+ext)
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, obj); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (p *Processor) storeThumbnail(ctx context.Context, videoID, tmpPath string, duration float64) error {
	jpeg, err := media.Thumbnail(tmpPath, media.ThumbnailTimestamp(duration))
	if err != nil {
		return err
	}

	thumbKey := fmt.Sprintf("thumbnails/%s.jpg", videoID)
	if err := p.store.Put(ctx, thumbKey, bytes.NewReader(jpeg), int64(len(jpeg)), "image/jpeg"); err != nil {
		return err
	}
	return p.videos.SetThumbnail(ctx, videoID, thumbKey)
}

// fail marks the video failed and returns the original error so the task
// still goes through the retry path.
func (p *Processor) fail(ctx context.Context, videoID string, cause error) error {
	if err := p.videos.MarkFailed(ctx, videoID, cause.Error()); err != nil {
		log.Printf("worker: mark failed %s: %v", videoID, err)
	}
	p.invalidate(ctx, videoID)
	return cause
}

func (p *Processor) invalidate(ctx context.Context, videoID string) {
	if err := p.cache.InvalidateVideo(ctx, videoID); err != nil {
		log.Printf("worker: cache invalidate %s: %v", videoID, err)
	}
}
