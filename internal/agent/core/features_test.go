package core

import (
	"testing"
	"time"
)

func TestEngagementRate(t *testing.T) {
	if got := EngagementRate(1000, 80, 20); got != 0.1 {
		t.Fatalf("got %v, want 0.1", got)
	}
	if got := EngagementRate(0, 80, 20); got != 0 {
		t.Fatalf("zero views: got %v", got)
	}
	if got := EngagementRate(10, 500, 500); got != 1 {
		t.Fatalf("clamp: got %v", got)
	}
}

func TestAverageViews(t *testing.T) {
	videos := []Video{{Views: 100}, {Views: 200}, {Views: 300}}
	if got := AverageViews(videos); got != 200 {
		t.Fatalf("got %v, want 200", got)
	}
	if got := AverageViews(nil); got != 0 {
		t.Fatalf("empty: got %v", got)
	}
}

func TestUploadFrequencyPerWeek(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	videos := []Video{
		{PublishedAt: base},
		{PublishedAt: base.AddDate(0, 0, 7)},
		{PublishedAt: base.AddDate(0, 0, 14)},
	}
	got := UploadFrequencyPerWeek(videos)
	if got < 1.4 || got > 1.6 {
		t.Fatalf("got %v, want ~1.5", got)
	}
	if got := UploadFrequencyPerWeek(videos[:1]); got != 0 {
		t.Fatalf("single video: got %v", got)
	}
}

func TestPercentileRank(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	if got := PercentileRank(values, 35); got != 0.75 {
		t.Fatalf("got %v, want 0.75", got)
	}
	if got := PercentileRank(values, 5); got != 0 {
		t.Fatalf("below all: got %v", got)
	}
	if got := PercentileRank(values, 100); got != 1 {
		t.Fatalf("above all: got %v", got)
	}
	if got := PercentileRank(nil, 5); got != 0.5 {
		t.Fatalf("empty sample: got %v", got)
	}
}

func TestBestPerformingVideo(t *testing.T) {
	videos := []Video{
		{VideoID: "a", Views: 100},
		{VideoID: "b", Views: 900},
		{VideoID: "c", Views: 500},
	}
	best, ok := BestPerformingVideo(videos)
	if !ok || best.VideoID != "b" {
		t.Fatalf("got %v ok=%v", best.VideoID, ok)
	}
	if _, ok := BestPerformingVideo(nil); ok {
		t.Fatal("empty slice should not return a video")
	}
}

func TestFormatCount(t *testing.T) {
	cases := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		1234567:    "1,234,567",
		1000000000: "1,000,000,000",
		-4500:      "-4,500",
	}
	for in, want := range cases {
		if got := FormatCount(in); got != want {
			t.Errorf("FormatCount(%d) = %q, want %q", in, got, want)
		}
	}
}
