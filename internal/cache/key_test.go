package cache

import (
	"testing"

	"github.com/myta-ai/myta/internal/agent/core"
)

func channelCtx(subs float64) map[string]interface{} {
	return map[string]interface{}{
		"channel_info": map[string]interface{}{
			"channel_id":       "UC123",
			"niche":            "cooking",
			"subscriber_count": subs,
		},
	}
}

func TestKeyStableAcrossReformatting(t *testing.T) {
	a := Key("How is my channel doing?", channelCtx(5000), core.QueryGeneral)
	b := Key("  how   is my CHANNEL doing?  ", channelCtx(5000), core.QueryGeneral)
	if a != b {
		t.Fatal("normalized messages should share a key")
	}
}

func TestKeyVariesByIntent(t *testing.T) {
	a := Key("how is my channel doing?", channelCtx(5000), core.QueryGeneral)
	b := Key("how is my channel doing?", channelCtx(5000), core.QueryMonetization)
	if a == b {
		t.Fatal("different intents must not collide")
	}
}

func TestKeyIgnoresVolatileContext(t *testing.T) {
	ctx := channelCtx(5000)
	withPerf := channelCtx(5000)
	withPerf["performance"] = map[string]interface{}{"avg_views": 999.0, "fetched_at": "2026-09-01T10:00:00Z"}
	if Key("q", ctx, core.QueryGeneral) != Key("q", withPerf, core.QueryGeneral) {
		t.Fatal("volatile performance fields must not change the key")
	}
}

func TestKeyVariesBySubscriberBucketOnly(t *testing.T) {
	// Drift inside one bucket keeps the key; crossing a bucket edge
	// changes it.
	if Key("q", channelCtx(5000), core.QueryGeneral) != Key("q", channelCtx(9999), core.QueryGeneral) {
		t.Fatal("same bucket should share a key")
	}
	if Key("q", channelCtx(9999), core.QueryGeneral) == Key("q", channelCtx(10000), core.QueryGeneral) {
		t.Fatal("crossing a bucket edge should change the key")
	}
}

func TestSubscriberBucketEdges(t *testing.T) {
	cases := map[float64]string{
		0:         "sub_1k",
		999:       "sub_1k",
		1000:      "1k_10k",
		10000:     "10k_100k",
		100000:    "100k_1m",
		1000000:   "1m_plus",
		250000000: "1m_plus",
	}
	for subs, want := range cases {
		if got := subscriberBucket(channelCtx(subs)); got != want {
			t.Errorf("subscriberBucket(%v) = %q, want %q", subs, got, want)
		}
	}
	if got := subscriberBucket(nil); got != "unknown" {
		t.Errorf("nil context bucket %q", got)
	}
}
