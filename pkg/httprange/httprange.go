// Package httprange parses the HTTP Range request header for single byte
// ranges as used by video players seeking within a stream.
package httprange

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnsatisfiable means the range is syntactically valid but lies outside
// the resource. The server should answer 416 with Content-Range: bytes */size.
var ErrUnsatisfiable = errors.New("requested range not satisfiable")

// ErrInvalid means the header is malformed and should be ignored, serving
// the full resource with 200 instead.
var ErrInvalid = errors.New("invalid range header")

// Range is a resolved byte range within a resource of known size.
type Range struct {
	Start  int64
	End    int64 // inclusive, per RFC 7233
	Length int64
	Size   int64
}

// ContentRange formats the Content-Range response header value.
func (r Range) ContentRange() string {
	return "bytes " + strconv.FormatInt(r.Start, 10) + "-" + strconv.FormatInt(r.End, 10) + "/" + strconv.FormatInt(r.Size, 10)
}

// Parse resolves a Range header value against a resource of the given size.
// Supported forms: "bytes=0-499", "bytes=500-" and "bytes=-500". Multi-range
// requests are treated as invalid; players only ever send a single range.
func Parse(header string, size int64) (Range, error) {
	if size <= 0 {
		return Range{}, ErrUnsatisfiable
	}

	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return Range{}, ErrInvalid
	}
	spec := strings.TrimSpace(header[len(prefix):])
	if spec == "" || strings.Contains(spec, ",") {
		return Range{}, ErrInvalid
	}

	dash := strings.Index(spec, "-")
	if dash < 0 {
		return Range{}, ErrInvalid
	}
	startStr := strings.TrimSpace(spec[:dash])
	endStr := strings.TrimSpace(spec[dash+1:])

	var start, end int64
	switch {
	case startStr == "" && endStr == "":
		return Range{}, ErrInvalid

	case startStr == "":
		// Suffix form: last N bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return Range{}, ErrInvalid
		}
		if n > size {
			n = size
		}
		start = size - n
		end = size - 1

	default:
		var err error
		start, err = strconv.ParseInt(startStr, 10, 64)
		if err != nil || start < 0 {
			return Range{}, ErrInvalid
		}
		if start >= size {
			return Range{}, ErrUnsatisfiable
		}
		if endStr == "" {
			end = size - 1
		} else {
			end, err = strconv.ParseInt(endStr, 10, 64)
			if err != nil || end < start {
				return Range{}, ErrInvalid
			}
			if end >= size {
				end = size - 1
			}
		}
	}

	return Range{
		Start:  start,
		End:    end,
		Length: end - start + 1,
		Size:   size,
	}, nil
}

// Unsatisfiable formats the Content-Range header for a 416 response.
func Unsatisfiable(size int64) string {
	return "bytes */" + strconv.FormatInt(size, 10)
}
