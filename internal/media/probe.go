package media

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Metadata holds the media properties extracted from a video file.
type Metadata struct {
	Duration float64
	Width    int
	Height   int
	FPS      float64
	Bitrate  int
	Codec    string
	HasAudio bool
}

// probeOutput matches the ffprobe -show_format -show_streams JSON.
type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width,omitempty"`
		Height       int    `json:"height,omitempty"`
		AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// Probe runs ffprobe against a local file and extracts video metadata.
func Probe(path string) (*Metadata, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbeOutput([]byte(out))
}

func parseProbeOutput(raw []byte) (*Metadata, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var m Metadata
	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			m.Codec = stream.CodecName
			m.Width = stream.Width
			m.Height = stream.Height
			m.FPS = parseFrameRate(stream.AvgFrameRate)
		case "audio":
			m.HasAudio = true
		}
	}

	if m.Codec == "" {
		return nil, fmt.Errorf("no video stream found")
	}

	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		m.Duration = d
	}
	if b, err := strconv.Atoi(out.Format.BitRate); err == nil {
		m.Bitrate = b
	}
	return &m, nil
}

// parseFrameRate converts ffprobe's fractional rate ("30000/1001") to fps.
func parseFrameRate(r string) float64 {
	parts := strings.SplitN(r, "/", 2)
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
