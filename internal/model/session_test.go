package model

import "testing"

func TestCompletionPercentage(t *testing.T) {
	cases := []struct {
		currentTime float64
		duration    float64
		want        float64
	}{
		{0, 100, 0},
		{50, 100, 50},
		{100, 100, 100},
		{150, 100, 100}, // past the end, clamped
		{-10, 100, 0},   // negative position, clamped
		{30, 0, 0},      // unknown duration
		{30, -1, 0},
	}
	for _, c := range cases {
		if got := CompletionPercentage(c.currentTime, c.duration); got != c.want {
			t.Errorf("CompletionPercentage(%v, %v) = %v, want %v", c.currentTime, c.duration, got, c.want)
		}
	}
}

func TestIsFinished(t *testing.T) {
	if IsFinished(94.9) {
		t.Error("94.9%% should not count as finished")
	}
	if !IsFinished(95.0) {
		t.Error("95%% should count as finished")
	}
	if !IsFinished(100.0) {
		t.Error("100%% should count as finished")
	}
}

func TestResumePosition(t *testing.T) {
	s := &ViewSession{CurrentTime: 42.5}
	if got := s.ResumePosition(); got != 42.5 {
		t.Errorf("ResumePosition = %v, want 42.5", got)
	}
}
