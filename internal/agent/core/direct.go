package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Direct-answer shortcuts resolve simple factual questions straight from
// the user's stored channel context, skipping classification and the agent
// fan-out entirely.

type directPattern struct {
	substrings []string // any one must match, case-insensitive
	fields     []string // stored-field aliases, first present wins
	template   string
	percent    bool // fields live in performance and render as a percentage
}

var directPatterns = []directPattern{
	{[]string{"how many subscribers", "subscriber count"}, []string{"subscriber_count"}, "You currently have %s subscribers.", false},
	{[]string{"how many views", "total views"}, []string{"total_views", "total_view_count"}, "Your channel has %s total views.", false},
	{[]string{"how many videos", "video count"}, []string{"video_count"}, "You have published %s videos.", false},
	{[]string{"what is my ctr", "click-through rate", "click through rate"}, []string{"avg_ctr"}, "Your average click-through rate is %s.", true},
	{[]string{"what is my retention", "average retention", "retention rate"}, []string{"avg_retention"}, "Your average retention is %s.", true},
	{[]string{"what is my engagement rate", "engagement rate"}, []string{"engagement_rate"}, "Your engagement rate is %s.", true},
}

// DirectAnswer checks message against the shortcut patterns and answers
// from userCtx's stored fields. Counts are rendered with thousands
// separators, rates as percentages. A missing or zero value falls through
// to the full pipeline, which can fetch fresh metrics instead of
// confidently reporting a placeholder.
func DirectAnswer(message string, userCtx map[string]interface{}) (string, bool) {
	lower := strings.ToLower(message)
	for _, p := range directPatterns {
		matched := false
		for _, sub := range p.substrings {
			if strings.Contains(lower, sub) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if p.percent {
			if v, ok := performanceNumber(userCtx, p.fields...); ok && v != 0 {
				return fmt.Sprintf(p.template, fmt.Sprintf("%.1f%%", v)), true
			}
			continue
		}
		if n, ok := channelInfoNumber(userCtx, p.fields...); ok && n != 0 {
			return fmt.Sprintf(p.template, FormatCount(n)), true
		}
	}
	return "", false
}

// ChannelIDFromContext extracts channel_info.channel_id if present.
func ChannelIDFromContext(userCtx map[string]interface{}) string {
	info, ok := userCtx["channel_info"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := info["channel_id"].(string)
	return id
}

// channelInfoNumber reads the first present numeric field from
// channel_info, tolerating the types a JSON round-trip can produce.
func channelInfoNumber(userCtx map[string]interface{}, fields ...string) (int64, bool) {
	info, ok := userCtx["channel_info"].(map[string]interface{})
	if !ok {
		return 0, false
	}
	for _, field := range fields {
		switch v := info[field].(type) {
		case float64:
			return int64(v), true
		case int64:
			return v, true
		case int:
			return int64(v), true
		case json.Number:
			n, err := v.Int64()
			return n, err == nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			return n, err == nil
		}
	}
	return 0, false
}

// performanceNumber reads the first present float field from the
// performance map, with the same type tolerance as channelInfoNumber.
func performanceNumber(userCtx map[string]interface{}, fields ...string) (float64, bool) {
	perf, ok := userCtx["performance"].(map[string]interface{})
	if !ok {
		return 0, false
	}
	for _, field := range fields {
		switch v := perf[field].(type) {
		case float64:
			return v, true
		case int64:
			return float64(v), true
		case int:
			return float64(v), true
		case json.Number:
			f, err := v.Float64()
			return f, err == nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			return f, err == nil
		}
	}
	return 0, false
}
