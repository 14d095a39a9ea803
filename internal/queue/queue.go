package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Task types understood by the worker.
const (
	TaskProcessUpload     = "process_upload"
	TaskGenerateThumbnail = "generate_thumbnail"
	TaskCleanupObjects    = "cleanup_objects"
	TaskScanStorage       = "scan_storage"
)

// Redis keys for the queue, delayed retries, and the dead letter list.
const (
	tasksKey      = "videoq:tasks"
	delayedKey    = "videoq:delayed"
	deadLetterKey = "videoq:dead"
)

// Task is the JSON envelope pushed through Redis.
type Task struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	VideoID    string   `json:"videoId,omitempty"`
	ObjectKeys []string `json:"objectKeys,omitempty"`
	Attempt    int      `json:"attempt"`
	EnqueuedAt int64    `json:"enqueuedAt"`
}

// NewTask builds a task envelope with a fresh ID.
func NewTask(taskType, videoID string, objectKeys ...string) *Task {
	return &Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		VideoID:    videoID,
		ObjectKeys: objectKeys,
		Attempt:    1,
		EnqueuedAt: time.Now().Unix(),
	}
}

// RetryBackoff returns the delay before re-running a failed attempt:
// 10s, 40s, 90s... (attempt² × 10s), capped at 10 minutes.
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt*attempt) * 10 * time.Second
	if d > 10*time.Minute {
		return 10 * time.Minute
	}
	return d
}

// Client produces and consumes tasks over a Redis list, with a sorted set
// for delayed retries and a dead letter list for exhausted tasks.
type Client struct {
	rdb         *redis.Client
	maxAttempts int
}

// NewClient connects to Redis. Unlike the cache, the queue is mandatory:
// a broken broker URL is a startup error.
func NewClient(redisURL string, maxAttempts int) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("queue: redis connection failed: %w", err)
	}

	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Client{rdb: rdb, maxAttempts: maxAttempts}, nil
}

// MaxAttempts is the retry budget per task.
func (c *Client) MaxAttempts() int {
	return c.maxAttempts
}

// Enqueue pushes a task for immediate consumption.
func (c *Client) Enqueue(ctx context.Context, t *Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.rdb.LPush(ctx, tasksKey, b).Err()
}

// Retry schedules the task to run again after its backoff, or moves it to
// the dead letter list when the attempt budget is spent.
func (c *Client) Retry(ctx context.Context, t *Task) error {
	if t.Attempt >= c.maxAttempts {
		return c.deadLetter(ctx, t)
	}
	t.Attempt++
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	runAt := time.Now().Add(RetryBackoff(t.Attempt - 1))
	return c.rdb.ZAdd(ctx, delayedKey, redis.Z{
		Score:  float64(runAt.Unix()),
		Member: b,
	}).Err()
}

func (c *Client) deadLetter(ctx context.Context, t *Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.rdb.LPush(ctx, deadLetterKey, b).Err()
}

// Dequeue blocks up to timeout waiting for the next task. Due delayed tasks
// are promoted onto the main list first. Returns nil when nothing is ready.
func (c *Client) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	if err := c.promoteDelayed(ctx); err != nil {
		return nil, err
	}

	res, err := c.rdb.BRPop(ctx, timeout, tasksKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value]
	var t Task
	if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
		return nil, fmt.Errorf("queue: bad task payload: %w", err)
	}
	return &t, nil
}

// promoteDelayed moves due entries from the delayed set to the main list.
func (c *Client) promoteDelayed(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().Unix())
	due, err := c.rdb.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: 100,
	}).Result()
	if err != nil || len(due) == 0 {
		return err
	}

	pipe := c.rdb.TxPipeline()
	for _, member := range due {
		pipe.ZRem(ctx, delayedKey, member)
		pipe.LPush(ctx, tasksKey, member)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Depth returns the number of tasks waiting on the main list, for metrics.
func (c *Client) Depth(ctx context.Context) (int64, error) {
	return c.rdb.LLen(ctx, tasksKey).Result()
}

// DeadCount returns the dead letter list length.
func (c *Client) DeadCount(ctx context.Context) (int64, error) {
	return c.rdb.LLen(ctx, deadLetterKey).Result()
}

// Close shuts down the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
