package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/firdavsDev/video-streamer-go/internal/config"
	"github.com/firdavsDev/video-streamer-go/internal/db"
	"github.com/firdavsDev/video-streamer-go/internal/handler"
	"github.com/firdavsDev/video-streamer-go/internal/middleware"
	"github.com/firdavsDev/video-streamer-go/internal/queue"
	"github.com/firdavsDev/video-streamer-go/internal/repository"
	"github.com/firdavsDev/video-streamer-go/internal/service"
	"github.com/firdavsDev/video-streamer-go/internal/storage"
	"github.com/firdavsDev/video-streamer-go/internal/worker"
)

// scanInterval is how often the storage audit task is self-enqueued.
const scanInterval = 6 * time.Hour

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "video-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.Options{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		ConnectAttempts: cfg.DBConnectAttempts,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	store, err := storage.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioSecure)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	tasks, err := queue.NewClient(cfg.RedisURL, cfg.TaskMaxAttempts)
	if err != nil {
		log.Fatalf("failed to connect to task queue: %v", err)
	}
	defer tasks.Close()

	videoRepo := repository.NewVideoRepo(pool)
	proc := worker.NewProcessor(videoRepo, store, tasks, cache, cfg.WorkerConcurrency)

	handler.InitMetrics(pool, tasks)
	proc.ObserveTask = func(taskType string, d time.Duration) {
		handler.Metrics.ProcessingDuration.Observe(d.Seconds())
	}

	// Metrics and liveness endpoint for the worker process.
	app := fiber.New(fiber.Config{AppName: "Video Streamer Worker"})
	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", handler.MetricsHandler())
	go func() {
		if err := app.Listen(":" + cfg.WorkerPort); err != nil {
			log.Printf("worker metrics server: %v", err)
		}
	}()

	// Periodic storage audit.
	go func() {
		ticker := time.NewTicker(scanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := tasks.Enqueue(ctx, queue.NewTask(queue.TaskScanStorage, "")); err != nil {
					log.Printf("enqueue storage scan: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("shutting down worker")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Printf("metrics server shutdown: %v", err)
		}
		cancel()
	}()

	proc.Start(ctx)
}
