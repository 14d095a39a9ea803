package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs. Video details change rarely once completed; the dashboard is
// recomputed from aggregates so it gets a short window.
const (
	VideoCacheTTL     = 5 * time.Minute
	DashboardCacheTTL = time.Minute
)

// CacheService provides a Redis cache-aside layer for video lookups and the
// dashboard overview.
type CacheService struct {
	rdb *redis.Client

	// OnHit and OnMiss are optional counters wired to metrics at startup.
	OnHit  func()
	OnMiss func()
}

// NewCacheService creates a CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Println("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("redis: invalid URL %q, caching disabled: %v", redisURL, err)
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: connection failed, caching disabled: %v", err)
		return &CacheService{}
	}

	log.Println("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetVideo retrieves a cached video response. Returns nil if not cached or cache is disabled.
func (c *CacheService) GetVideo(ctx context.Context, videoID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, videoKey(videoID)).Bytes()
	if err == redis.Nil {
		c.countMiss()
		return nil, nil
	}
	if err == nil {
		c.countHit()
	}
	return data, err
}

// SetVideo stores a video response in cache.
func (c *CacheService) SetVideo(ctx context.Context, videoID string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, videoKey(videoID), b, VideoCacheTTL).Err()
}

// InvalidateVideo removes a video from cache (called on status change and delete).
func (c *CacheService) InvalidateVideo(ctx context.Context, videoID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, videoKey(videoID)).Err()
}

// GetDashboard retrieves the cached dashboard overview. Returns nil if not cached.
func (c *CacheService) GetDashboard(ctx context.Context) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, dashboardKey).Bytes()
	if err == redis.Nil {
		c.countMiss()
		return nil, nil
	}
	if err == nil {
		c.countHit()
	}
	return data, err
}

// SetDashboard stores the dashboard overview in cache.
func (c *CacheService) SetDashboard(ctx context.Context, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, dashboardKey, b, DashboardCacheTTL).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *CacheService) countHit() {
	if c.OnHit != nil {
		c.OnHit()
	}
}

func (c *CacheService) countMiss() {
	if c.OnMiss != nil {
		c.OnMiss()
	}
}

const dashboardKey = "dashboard:overview"

func videoKey(videoID string) string {
	return fmt.Sprintf("video:%s", videoID)
}
