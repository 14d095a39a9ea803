package media

import (
	"math"
	"strings"
	"testing"
)

const sampleProbeJSON = `{
	"streams": [
		{
			"codec_type": "video",
			"codec_name": "h264",
			"width": 1920,
			"height": 1080,
			"avg_frame_rate": "30000/1001"
		},
		{
			"codec_type": "audio",
			"codec_name": "aac"
		}
	],
	"format": {
		"duration": "125.5",
		"bit_rate": "4500000"
	}
}`

func TestParseProbeOutput(t *testing.T) {
	m, err := parseProbeOutput([]byte(sampleProbeJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Codec != "h264" {
		t.Errorf("codec = %q, want h264", m.Codec)
	}
	if m.Width != 1920 || m.Height != 1080 {
		t.Errorf("resolution = %dx%d, want 1920x1080", m.Width, m.Height)
	}
	if m.Duration != 125.5 {
		t.Errorf("duration = %v, want 125.5", m.Duration)
	}
	if m.Bitrate != 4500000 {
		t.Errorf("bitrate = %d, want 4500000", m.Bitrate)
	}
	if !m.HasAudio {
		t.Error("audio stream should be detected")
	}
	// NTSC rate 30000/1001 ≈ 29.97
	if math.Abs(m.FPS-29.97) > 0.01 {
		t.Errorf("fps = %v, want ~29.97", m.FPS)
	}
}

func TestParseProbeOutput_NoVideoStream(t *testing.T) {
	audioOnly := `{
		"streams": [{"codec_type": "audio", "codec_name": "mp3"}],
		"format": {"duration": "60.0", "bit_rate": "128000"}
	}`
	_, err := parseProbeOutput([]byte(audioOnly))
	if err == nil {
		t.Fatal("audio-only file should be rejected")
	}
	if !strings.Contains(err.Error(), "no video stream") {
		t.Errorf("error = %v, want mention of missing video stream", err)
	}
}

func TestParseProbeOutput_BadJSON(t *testing.T) {
	if _, err := parseProbeOutput([]byte("not json")); err == nil {
		t.Fatal("malformed output should be rejected")
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"25/1", 25},
		{"0/0", 0},
		{"", 0},
		{"garbage", 0},
		{"30", 0},
	}
	for _, c := range cases {
		if got := parseFrameRate(c.in); got != c.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestThumbnailTimestamp(t *testing.T) {
	// Midpoint for known durations.
	if got := ThumbnailTimestamp(100); got != 50 {
		t.Errorf("ThumbnailTimestamp(100) = %v, want 50", got)
	}
	// Fallback for unknown duration.
	if got := ThumbnailTimestamp(0); got != 1 {
		t.Errorf("ThumbnailTimestamp(0) = %v, want 1", got)
	}
}
