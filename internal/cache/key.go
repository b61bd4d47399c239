package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/myta-ai/myta/internal/agent/core"
)

// Key derives the deterministic cache key for a chat turn. It folds the
// normalized message, the stable channel identity fields, and the intent.
// Volatile context fields (timestamps, performance snapshots) are
// excluded so a fresh metrics refresh does not orphan cached answers.
func Key(message string, userCtx map[string]interface{}, intent core.QueryType) string {
	h := sha256.New()
	h.Write([]byte(normalizeMessage(message)))
	h.Write([]byte{0})
	h.Write([]byte(core.ChannelIDFromContext(userCtx)))
	h.Write([]byte{0})
	h.Write([]byte(nicheFromContext(userCtx)))
	h.Write([]byte{0})
	h.Write([]byte(subscriberBucket(userCtx)))
	h.Write([]byte{0})
	h.Write([]byte(intent))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeMessage lowercases and collapses internal whitespace so
// trivially reworded repeats hit the same entry.
func normalizeMessage(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func nicheFromContext(userCtx map[string]interface{}) string {
	info, ok := userCtx["channel_info"].(map[string]interface{})
	if !ok {
		return ""
	}
	niche, _ := info["niche"].(string)
	return niche
}

// subscriberBucket coarsens subscriber count into bands. Exact counts
// drift constantly; the band is what changes the advice.
func subscriberBucket(userCtx map[string]interface{}) string {
	info, ok := userCtx["channel_info"].(map[string]interface{})
	if !ok {
		return "unknown"
	}
	n, ok := info["subscriber_count"].(float64)
	if !ok {
		switch v := info["subscriber_count"].(type) {
		case int:
			n = float64(v)
		case int64:
			n = float64(v)
		default:
			return "unknown"
		}
	}
	switch {
	case n < 1_000:
		return "sub_1k"
	case n < 10_000:
		return "1k_10k"
	case n < 100_000:
		return "10k_100k"
	case n < 1_000_000:
		return "100k_1m"
	default:
		return "1m_plus"
	}
}
