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
	"github.com/firdavsDev/video-streamer-go/internal/router"
	"github.com/firdavsDev/video-streamer-go/internal/service"
	"github.com/firdavsDev/video-streamer-go/internal/storage"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "video-api")

	ctx := context.Background()
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
	userRepo := repository.NewUserRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)

	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err := authSvc.BootstrapAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to bootstrap admin user: %v", err)
	}

	videoSvc := service.NewVideoService(videoRepo, sessionRepo, store, tasks, cache)
	analyticsSvc := service.NewAnalyticsService(videoRepo, sessionRepo, cache)

	handler.InitMetrics(pool, tasks)
	cache.OnHit = handler.Metrics.CacheHits.Inc
	cache.OnMiss = handler.Metrics.CacheMisses.Inc

	h := &router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, userRepo),
		Video:     handler.NewVideoHandler(videoSvc, cfg),
		Stream:    handler.NewStreamHandler(videoSvc, analyticsSvc, store, cfg.StreamingChunkSize),
		Analytics: handler.NewAnalyticsHandler(analyticsSvc),
		Health:    handler.NewHealthHandler(pool, cache.Client(), store),
	}

	app := fiber.New(fiber.Config{
		AppName:      "Video Streamer API",
		ServerHeader: "VideoStreamer",
		BodyLimit:    int(cfg.MaxUploadSize) + 1024*1024,
	})
	router.Setup(app, h, authSvc, cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("video backend starting on :%s (env=%s)", cfg.Port, cfg.Environment)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
