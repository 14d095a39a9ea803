package model

import "testing"

func TestCanTransition_HappyPath(t *testing.T) {
	path := []VideoStatus{StatusPending, StatusUploading, StatusProcessing, StatusCompleted, StatusDeleted}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Errorf("%s -> %s should be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransition_FailedRetry(t *testing.T) {
	if !CanTransition(StatusFailed, StatusProcessing) {
		t.Error("failed -> processing should be allowed for retries")
	}
}

func TestCanTransition_DeletedIsTerminal(t *testing.T) {
	for _, to := range []VideoStatus{StatusPending, StatusUploading, StatusProcessing, StatusCompleted, StatusFailed} {
		if CanTransition(StatusDeleted, to) {
			t.Errorf("deleted -> %s should be blocked", to)
		}
	}
	if !StatusDeleted.IsTerminal() {
		t.Error("deleted should be terminal")
	}
}

func TestCanTransition_NoSkipping(t *testing.T) {
	if CanTransition(StatusPending, StatusCompleted) {
		t.Error("pending -> completed should be blocked")
	}
	if CanTransition(StatusCompleted, StatusProcessing) {
		t.Error("completed -> processing should be blocked")
	}
	if CanTransition(StatusUploading, StatusCompleted) {
		t.Error("uploading -> completed should be blocked")
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("completed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != StatusCompleted {
		t.Errorf("got %s, want completed", s)
	}

	if _, err := ParseStatus("exploded"); err == nil {
		t.Error("invalid status should be rejected")
	}
	if _, err := ParseStatus(""); err == nil {
		t.Error("empty status should be rejected")
	}
}

func TestIsProcessing(t *testing.T) {
	for _, s := range []VideoStatus{StatusPending, StatusUploading, StatusProcessing} {
		if !s.IsProcessing() {
			t.Errorf("%s should count as processing", s)
		}
	}
	for _, s := range []VideoStatus{StatusCompleted, StatusFailed, StatusDeleted} {
		if s.IsProcessing() {
			t.Errorf("%s should not count as processing", s)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{-5, "00:00:00"},
		{59, "00:00:59"},
		{61.4, "00:01:01"},
		{3600, "01:00:00"},
		{3725, "01:02:05"},
		{86399, "23:59:59"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.seconds); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestResolution(t *testing.T) {
	w, h := 1920, 1080
	v := &Video{Width: &w, Height: &h}
	if got := v.Resolution(); got != "1920x1080" {
		t.Errorf("Resolution = %q, want 1920x1080", got)
	}

	unprobed := &Video{}
	if got := unprobed.Resolution(); got != "unknown" {
		t.Errorf("Resolution without metadata = %q, want unknown", got)
	}
}

func TestQualityForHeight(t *testing.T) {
	cases := []struct {
		height int
		want   VideoQuality
	}{
		{144, Quality240p},
		{240, Quality240p},
		{360, Quality360p},
		{480, Quality480p},
		{720, Quality720p},
		{1080, Quality1080p},
		{1200, Quality1080p},
		{1440, Quality1440p},
		{2160, Quality2160p},
		{4320, Quality2160p},
	}
	for _, c := range cases {
		if got := QualityForHeight(c.height); got != c.want {
			t.Errorf("QualityForHeight(%d) = %s, want %s", c.height, got, c.want)
		}
	}
}
