package core

import (
	"context"
	"fmt"
	"testing"
)

func TestClassifyParsesModelResult(t *testing.T) {
	provider := &stubProvider{fn: func(messages []ChatMessage, opts CompletionOptions) (Completion, error) {
		return Completion{
			Text:       `{"query_type":"seo_optimization","confidence":0.9,"time_period":"last_30d","depth":"deep"}`,
			TokensUsed: 42,
		}, nil
	}}
	c := NewIntentClassifier(provider, "test-model", testTelemetry())

	got := c.Classify(context.Background(), "how do I fix my titles?", "UC123")
	if got.Intent != QuerySEOOptimization {
		t.Fatalf("intent %s", got.Intent)
	}
	if got.Degraded {
		t.Fatal("should not be degraded")
	}
	if got.Context.ChannelID != "UC123" || got.Context.TimePeriod != "last_30d" || got.Context.Depth != "deep" {
		t.Fatalf("context %+v", got.Context)
	}
	if got.TokensUsed != 42 {
		t.Fatalf("tokens %d", got.TokensUsed)
	}
}

func TestClassifyClampsConfidence(t *testing.T) {
	provider := &stubProvider{fn: func(messages []ChatMessage, opts CompletionOptions) (Completion, error) {
		return Completion{Text: `{"query_type":"monetization","confidence":3.5}`}, nil
	}}
	c := NewIntentClassifier(provider, "test-model", testTelemetry())

	got := c.Classify(context.Background(), "can I make money?", "")
	if got.Confidence != 1 {
		t.Fatalf("confidence %v, want 1", got.Confidence)
	}
}

func TestClassifyDegradesOnProviderError(t *testing.T) {
	provider := &stubProvider{fn: func(messages []ChatMessage, opts CompletionOptions) (Completion, error) {
		return Completion{}, fmt.Errorf("upstream down")
	}}
	c := NewIntentClassifier(provider, "test-model", testTelemetry())

	got := c.Classify(context.Background(), "which is my best video by views?", "UC123")
	if !got.Degraded {
		t.Fatal("expected degraded classification")
	}
	if got.Intent != QueryContentAnalysis {
		t.Fatalf("heuristic intent %s, want content_analysis", got.Intent)
	}
	if got.Context.ChannelID != "UC123" {
		t.Fatalf("channel id lost: %+v", got.Context)
	}
}

func TestClassifyDegradesOnUnusableJSON(t *testing.T) {
	provider := &stubProvider{fn: func(messages []ChatMessage, opts CompletionOptions) (Completion, error) {
		return Completion{Text: "I think this is about thumbnails maybe."}, nil
	}}
	c := NewIntentClassifier(provider, "test-model", testTelemetry())

	got := c.Classify(context.Background(), "tell me about my channel", "")
	if !got.Degraded {
		t.Fatal("expected degraded classification")
	}
	if got.Intent != QueryGeneral {
		t.Fatalf("heuristic intent %s, want general", got.Intent)
	}
}

func TestClassifyDegradesOnUnknownQueryType(t *testing.T) {
	provider := &stubProvider{fn: func(messages []ChatMessage, opts CompletionOptions) (Completion, error) {
		return Completion{Text: `{"query_type":"astrology","confidence":0.99}`}, nil
	}}
	c := NewIntentClassifier(provider, "test-model", testTelemetry())

	got := c.Classify(context.Background(), "what do my analytics say?", "")
	if !got.Degraded {
		t.Fatal("expected degraded classification")
	}
	if got.Intent != QueryContentAnalysis {
		t.Fatalf("heuristic intent %s", got.Intent)
	}
}
