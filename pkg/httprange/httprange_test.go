package httprange

import (
	"errors"
	"testing"
)

func TestParseBounded(t *testing.T) {
	r, err := Parse("bytes=0-499", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 0 || r.End != 499 || r.Length != 500 {
		t.Fatalf("got %+v, want 0-499 length 500", r)
	}
	if got := r.ContentRange(); got != "bytes 0-499/1000" {
		t.Fatalf("ContentRange = %q", got)
	}
}

func TestParseOpenEnded(t *testing.T) {
	r, err := Parse("bytes=500-", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 500 || r.End != 999 || r.Length != 500 {
		t.Fatalf("got %+v, want 500-999 length 500", r)
	}
}

func TestParseSuffix(t *testing.T) {
	r, err := Parse("bytes=-200", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 800 || r.End != 999 || r.Length != 200 {
		t.Fatalf("got %+v, want 800-999 length 200", r)
	}
}

func TestParseSuffixLargerThanResource(t *testing.T) {
	r, err := Parse("bytes=-5000", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 0 || r.End != 999 {
		t.Fatalf("got %+v, want whole resource", r)
	}
}

func TestParseEndClamped(t *testing.T) {
	r, err := Parse("bytes=900-5000", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 900 || r.End != 999 || r.Length != 100 {
		t.Fatalf("got %+v, want 900-999", r)
	}
}

func TestParseStartBeyondSize(t *testing.T) {
	_, err := Parse("bytes=1000-", 1000)
	if !errors.Is(err, ErrUnsatisfiable) {
		t.Fatalf("err = %v, want ErrUnsatisfiable", err)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"bytes=",
		"bytes=-",
		"bytes=abc-def",
		"bytes=500-100",
		"bytes=-0",
		"items=0-10",
		"bytes=0-100,200-300",
	}
	for _, h := range cases {
		if _, err := Parse(h, 1000); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalid", h, err)
		}
	}
}

func TestParseZeroSize(t *testing.T) {
	_, err := Parse("bytes=0-", 0)
	if !errors.Is(err, ErrUnsatisfiable) {
		t.Fatalf("err = %v, want ErrUnsatisfiable", err)
	}
}

func TestUnsatisfiable(t *testing.T) {
	if got := Unsatisfiable(1234); got != "bytes */1234" {
		t.Fatalf("Unsatisfiable = %q", got)
	}
}
