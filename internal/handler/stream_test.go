package handler

import (
	"math"
	"testing"
)

func TestSendSize(t *testing.T) {
	if got := sendSize(0); got != 0 {
		t.Errorf("sendSize(0) = %d, want 0", got)
	}
	if got := sendSize(1 << 20); got != 1<<20 {
		t.Errorf("sendSize(1MiB) = %d, want %d", got, 1<<20)
	}
	if got := sendSize(-5); got != -1 {
		t.Errorf("sendSize(-5) = %d, want -1", got)
	}

	// On 64-bit platforms MaxInt64 fits; on 32-bit it must fall back to -1
	// rather than truncate.
	huge := int64(math.MaxInt64)
	if got := sendSize(huge); got != -1 && int64(got) != huge {
		t.Errorf("sendSize(MaxInt64) = %d, want -1 or the full size", got)
	}
}

func TestIsStartRange(t *testing.T) {
	cases := []struct {
		header string
		want   bool
	}{
		{"bytes=0-", true},
		{"bytes=0-1023", true},
		{"bytes=500-", false},
		{"bytes=-500", false},
	}
	for _, c := range cases {
		if got := isStartRange(c.header); got != c.want {
			t.Errorf("isStartRange(%q) = %v, want %v", c.header, got, c.want)
		}
	}
}
