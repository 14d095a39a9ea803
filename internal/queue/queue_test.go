package queue

import (
	"testing"
	"time"
)

func TestRetryBackoff_Schedule(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Second},
		{2, 40 * time.Second},
		{3, 90 * time.Second},
		{4, 160 * time.Second},
	}
	for _, c := range cases {
		if got := RetryBackoff(c.attempt); got != c.want {
			t.Errorf("RetryBackoff(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestRetryBackoff_Capped(t *testing.T) {
	if got := RetryBackoff(100); got != 10*time.Minute {
		t.Errorf("RetryBackoff(100) = %v, want cap of 10m", got)
	}
}

func TestRetryBackoff_InvalidAttempt(t *testing.T) {
	if got := RetryBackoff(0); got != 10*time.Second {
		t.Errorf("RetryBackoff(0) = %v, want 10s", got)
	}
	if got := RetryBackoff(-3); got != 10*time.Second {
		t.Errorf("RetryBackoff(-3) = %v, want 10s", got)
	}
}

func TestNewTask(t *testing.T) {
	task := NewTask(TaskProcessUpload, "video-1", "videos/video-1.mp4")

	if task.ID == "" {
		t.Error("task should get a fresh ID")
	}
	if task.Type != TaskProcessUpload {
		t.Errorf("type = %q, want %q", task.Type, TaskProcessUpload)
	}
	if task.VideoID != "video-1" {
		t.Errorf("videoID = %q, want video-1", task.VideoID)
	}
	if len(task.ObjectKeys) != 1 || task.ObjectKeys[0] != "videos/video-1.mp4" {
		t.Errorf("objectKeys = %v", task.ObjectKeys)
	}
	if task.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", task.Attempt)
	}
	if task.EnqueuedAt == 0 {
		t.Error("enqueuedAt should be set")
	}
}

func TestNewTask_DistinctIDs(t *testing.T) {
	a := NewTask(TaskScanStorage, "")
	b := NewTask(TaskScanStorage, "")
	if a.ID == b.ID {
		t.Error("tasks should get distinct IDs")
	}
}
