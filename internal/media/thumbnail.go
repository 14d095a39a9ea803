package media

import (
	"bytes"
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const thumbnailMaxWidth = 320

// Thumbnail grabs a single frame at the given timestamp (seconds), scaled
// down to at most 320px wide, and returns it as JPEG bytes.
func Thumbnail(path string, atSeconds float64) ([]byte, error) {
	var buf bytes.Buffer
	err := ffmpeg.
		Input(path, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.2f", atSeconds), "hide_banner": "", "loglevel": "error"}).
		Output("pipe:", ffmpeg.KwArgs{
			"vcodec":  "mjpeg",
			"vframes": 1,
			"format":  "image2",
			"vf":      fmt.Sprintf("scale='min(%d,iw)':-2", thumbnailMaxWidth),
		}).
		WithOutput(&buf).
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("extract thumbnail at %.2fs: %w", atSeconds, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("empty thumbnail output")
	}
	return buf.Bytes(), nil
}

// ThumbnailTimestamp picks the frame to use: the midpoint for known
// durations, otherwise one second in.
func ThumbnailTimestamp(duration float64) float64 {
	if duration > 2 {
		return duration / 2
	}
	return 1
}
