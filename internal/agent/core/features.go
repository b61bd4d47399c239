package core

import (
	"sort"
	"strconv"
	"time"
)

// Deterministic feature math computed locally from channel metrics. These
// run before any completion call so agents can ground their analysis, and
// they double as the fallback analysis when the completion's JSON cannot
// be parsed.

// clamp01 bounds a confidence-style value to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EngagementRate returns (likes+comments)/views, clamped to [0,1].
// Zero views yields zero.
func EngagementRate(views, likes, comments int64) float64 {
	if views <= 0 {
		return 0
	}
	return clamp01(float64(likes+comments) / float64(views))
}

// AverageViews returns the mean view count across videos, zero for an
// empty slice.
func AverageViews(videos []Video) float64 {
	if len(videos) == 0 {
		return 0
	}
	var total int64
	for _, v := range videos {
		total += v.Views
	}
	return float64(total) / float64(len(videos))
}

// UploadFrequencyPerWeek estimates uploads per week from publish
// timestamps. Fewer than two videos gives zero.
func UploadFrequencyPerWeek(videos []Video) float64 {
	if len(videos) < 2 {
		return 0
	}
	earliest, latest := videos[0].PublishedAt, videos[0].PublishedAt
	for _, v := range videos[1:] {
		if v.PublishedAt.Before(earliest) {
			earliest = v.PublishedAt
		}
		if v.PublishedAt.After(latest) {
			latest = v.PublishedAt
		}
	}
	span := latest.Sub(earliest)
	if span <= 0 {
		return 0
	}
	weeks := span.Hours() / (24 * 7)
	if weeks < 1 {
		weeks = 1
	}
	return float64(len(videos)) / weeks
}

// PercentileRank returns the fraction of values strictly below x, in
// [0,1]. An empty sample gives 0.5 (no information either way).
func PercentileRank(values []float64, x float64) float64 {
	if len(values) == 0 {
		return 0.5
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	below := sort.SearchFloat64s(sorted, x)
	return float64(below) / float64(len(sorted))
}

// BestPerformingVideo returns the video with the most views, false for an
// empty slice. Ties keep the earlier-published video.
func BestPerformingVideo(videos []Video) (Video, bool) {
	if len(videos) == 0 {
		return Video{}, false
	}
	best := videos[0]
	for _, v := range videos[1:] {
		if v.Views > best.Views || (v.Views == best.Views && v.PublishedAt.Before(best.PublishedAt)) {
			best = v
		}
	}
	return best, true
}

// StalenessDays returns whole days since fetchedAt, at least zero.
func StalenessDays(fetchedAt, now time.Time) int {
	d := now.Sub(fetchedAt)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// FormatCount renders an integer with thousands separators, e.g. 1234567
// becomes "1,234,567".
func FormatCount(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b []byte
	lead := len(s) % 3
	if lead > 0 {
		b = append(b, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(b) > 0 {
			b = append(b, ',')
		}
		b = append(b, s[i:i+3]...)
	}
	if neg {
		return "-" + string(b)
	}
	return string(b)
}
