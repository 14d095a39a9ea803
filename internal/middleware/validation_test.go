package middleware

import (
	"strings"
	"testing"
)

func TestValidateUUID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr bool
	}{
		{"valid", "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", false},
		{"trims whitespace", "  9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d  ", "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", false},
		{"empty", "", "", true},
		{"not a uuid", "video-123", "", true},
		{"sql injection", "'; DROP TABLE videos--", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateUUID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.wantID {
				t.Errorf("got %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "My Vacation", "My Vacation", false},
		{"trims whitespace", "  Clip  ", "Clip", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"too long", strings.Repeat("x", MaxTitleLen+1), "", true},
		{"exactly max", strings.Repeat("x", MaxTitleLen), strings.Repeat("x", MaxTitleLen), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateTitle(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name      string
		skip      int
		limit     int
		wantSkip  int
		wantLimit int
		wantErr   bool
	}{
		{"defaults", 0, 0, 0, DefaultPageLimit, false},
		{"explicit", 40, 20, 40, 20, false},
		{"max limit", 0, MaxPageLimit, 0, MaxPageLimit, false},
		{"negative skip", -1, 20, 0, 0, true},
		{"limit too high", 0, MaxPageLimit + 1, 0, 0, true},
		{"negative limit", 0, -5, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, limit, errMsg := ValidatePagination(tt.skip, tt.limit)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if skip != tt.wantSkip || limit != tt.wantLimit {
				t.Errorf("got (%d, %d), want (%d, %d)", skip, limit, tt.wantSkip, tt.wantLimit)
			}
		})
	}
}

func TestValidateUpload(t *testing.T) {
	allowed := []string{".mp4", ".mov", ".webm"}
	const maxSize = 10 * 1024 * 1024

	tests := []struct {
		name     string
		filename string
		size     int64
		want     string
		wantErr  bool
	}{
		{"valid", "clip.mp4", 1024, "clip.mp4", false},
		{"uppercase extension", "CLIP.MP4", 1024, "CLIP.MP4", false},
		{"path stripped", "../../etc/passwd.mp4", 1024, "passwd.mp4", false},
		{"disallowed extension", "malware.exe", 1024, "", true},
		{"no extension", "video", 1024, "", true},
		{"empty file", "clip.mp4", 0, "", true},
		{"too large", "clip.mp4", maxSize + 1, "", true},
		{"empty name", "", 1024, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateUpload(tt.filename, tt.size, allowed, maxSize)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"mp4", "video/mp4", "video/mp4", false},
		{"quicktime", "video/quicktime", "video/quicktime", false},
		{"with parameters", "video/mp4; codecs=avc1", "video/mp4", false},
		{"uppercase", "VIDEO/MP4", "video/mp4", false},
		{"octet-stream fallback", "application/octet-stream", "application/octet-stream", false},
		{"empty defaults to octet-stream", "", "application/octet-stream", false},
		{"executable", "application/x-msdownload", "", true},
		{"html", "text/html", "", true},
		{"image", "image/png", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateContentType(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	if _, errMsg := ValidateSessionID("session-abc-123"); errMsg != "" {
		t.Errorf("unexpected error: %s", errMsg)
	}
	if _, errMsg := ValidateSessionID(""); errMsg == "" {
		t.Error("empty session id should be rejected")
	}
	if _, errMsg := ValidateSessionID(strings.Repeat("s", MaxSessionIDLen+1)); errMsg == "" {
		t.Error("oversized session id should be rejected")
	}
}

func TestValidateSearchQuery(t *testing.T) {
	if got, errMsg := ValidateSearchQuery("  vacation  "); errMsg != "" || got != "vacation" {
		t.Errorf("got (%q, %q), want (vacation, \"\")", got, errMsg)
	}
	if _, errMsg := ValidateSearchQuery(""); errMsg == "" {
		t.Error("empty query should be rejected")
	}
	if _, errMsg := ValidateSearchQuery(strings.Repeat("q", MaxSearchLen+1)); errMsg == "" {
		t.Error("oversized query should be rejected")
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v1/videos/9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", "/api/v1/videos/:videoId"},
		{"/api/v1/videos/9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d/stream", "/api/v1/videos/:videoId/stream"},
		{"/api/v1/videos/upload", "/api/v1/videos/upload"},
		{"/api/v1/videos/search/query", "/api/v1/videos/search/query"},
		{"/api/v1/videos/dashboard/overview", "/api/v1/videos/dashboard/overview"},
		{"/api/v1/auth/users/alice/toggle-status", "/api/v1/auth/users/:userId/toggle-status"},
		{"/health", "/health"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.in); got != tt.want {
			t.Errorf("sanitizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
