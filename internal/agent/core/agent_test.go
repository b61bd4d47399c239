package core

import (
	"context"
	"testing"
	"time"
)

func contentAgentForTest(provider *stubProvider, metrics ChannelMetricsProvider, auth OrchestratorAuth) *ContentAnalysisAgent {
	return NewContentAnalysisAgent(provider, metrics, auth, testTelemetry(), CompletionOptions{Model: "test-model"})
}

func analysisRequest(intent QueryType) AgentRequest {
	return AgentRequest{
		RequestID: "req-1",
		Timestamp: time.Now(),
		QueryType: intent,
		Message:   "how are my videos doing?",
		Context:   Context{ChannelID: "UC123"},
		AuthToken: "boss-token",
	}
}

func TestAgentDomainMismatchSkipsProvider(t *testing.T) {
	provider := &stubProvider{}
	metrics := &stubMetrics{videos: sampleVideos()}
	agent := NewMonetizationAgent(provider, metrics, NewOrchestratorAuth("boss-token"), testTelemetry(), CompletionOptions{})

	// Content intent never selects the monetization agent.
	resp := agent.ProcessBossRequest(context.Background(), analysisRequest(QueryContentAnalysis))
	if resp.DomainMatch {
		t.Fatal("expected domain mismatch")
	}
	if !resp.Success {
		t.Fatal("mismatch is a routing signal, not a failure")
	}
	if provider.callCount() != 0 {
		t.Fatalf("provider called %d times, want 0", provider.callCount())
	}
}

func TestAgentRejectsNonOrchestratorCaller(t *testing.T) {
	provider := &stubProvider{}
	agent := contentAgentForTest(provider, &stubMetrics{videos: sampleVideos()}, NewOrchestratorAuth("boss-token"))

	req := analysisRequest(QueryContentAnalysis)
	req.AuthToken = "forged"
	resp := agent.ProcessBossRequest(context.Background(), req)
	if resp.Success {
		t.Fatal("expected rejection")
	}
	if provider.callCount() != 0 {
		t.Fatalf("provider called %d times, want 0", provider.callCount())
	}
}

func TestAgentSuccessCarriesStaticConfidence(t *testing.T) {
	provider := &stubProvider{fn: func(messages []ChatMessage, opts CompletionOptions) (Completion, error) {
		return Completion{Text: `{"summary":"uploads are consistent","key_insights":[],"recommendations":[]}`, TokensUsed: 100}, nil
	}}
	agent := contentAgentForTest(provider, &stubMetrics{
		summary: ChannelSummary{ChannelID: "UC123", Title: "Test", SubscriberCount: 5000},
		videos:  sampleVideos(),
	}, NewOrchestratorAuth("boss-token"))

	resp := agent.ProcessBossRequest(context.Background(), analysisRequest(QueryContentAnalysis))
	if !resp.Success || !resp.DomainMatch {
		t.Fatalf("resp %+v", resp)
	}
	if resp.Confidence != ConfidenceContentAnalysis {
		t.Fatalf("confidence %v, want %v", resp.Confidence, ConfidenceContentAnalysis)
	}
	if resp.Analysis.Summary != "uploads are consistent" {
		t.Fatalf("summary %q", resp.Analysis.Summary)
	}
	if resp.TokensUsed != 100 {
		t.Fatalf("tokens %d", resp.TokensUsed)
	}
}

func TestAgentClampsInsightConfidence(t *testing.T) {
	provider := &stubProvider{fn: func(messages []ChatMessage, opts CompletionOptions) (Completion, error) {
		return Completion{Text: `{"summary":"ok","key_insights":[
			{"insight":"overconfident","confidence":1.7},
			{"insight":"underconfident","confidence":-0.2}]}`}, nil
	}}
	agent := contentAgentForTest(provider, &stubMetrics{videos: sampleVideos()}, nil)

	resp := agent.ProcessBossRequest(context.Background(), analysisRequest(QueryContentAnalysis))
	if !resp.Success {
		t.Fatalf("resp %+v", resp)
	}
	if got := resp.Analysis.KeyInsights[0].Confidence; got != 1 {
		t.Fatalf("confidence %v, want 1", got)
	}
	if got := resp.Analysis.KeyInsights[1].Confidence; got != 0 {
		t.Fatalf("confidence %v, want 0", got)
	}
}

func TestAgentResultCacheSkipsSecondCall(t *testing.T) {
	provider := &stubProvider{fn: func(messages []ChatMessage, opts CompletionOptions) (Completion, error) {
		return Completion{Text: `{"summary":"cached analysis"}`}, nil
	}}
	agent := contentAgentForTest(provider, &stubMetrics{videos: sampleVideos()}, nil)

	req := analysisRequest(QueryContentAnalysis)
	first := agent.ProcessBossRequest(context.Background(), req)
	second := agent.ProcessBossRequest(context.Background(), req)
	if !first.Success || !second.Success {
		t.Fatalf("first %+v second %+v", first, second)
	}
	if provider.callCount() != 1 {
		t.Fatalf("provider called %d times, want 1", provider.callCount())
	}
	if second.Analysis.Summary != first.Analysis.Summary {
		t.Fatal("cached analysis differs")
	}
}

func TestAgentMetricsFailureBecomesStructuredError(t *testing.T) {
	provider := &stubProvider{}
	agent := contentAgentForTest(provider, &stubMetrics{err: ErrChannelNotFound}, nil)

	resp := agent.ProcessBossRequest(context.Background(), analysisRequest(QueryContentAnalysis))
	if resp.Success {
		t.Fatal("expected failure")
	}
	if resp.ErrorMessage == "" {
		t.Fatal("expected error message")
	}
	if resp.Confidence != 0 {
		t.Fatalf("confidence %v, want 0", resp.Confidence)
	}
}

func TestAgentRecoversFromPanic(t *testing.T) {
	agent := contentAgentForTest(&stubProvider{}, &stubMetrics{videos: sampleVideos()}, nil)
	agent.baseAgent.analyze = func(ctx context.Context, req AgentRequest) (Analysis, int64, error) {
		panic("boom")
	}

	resp := agent.ProcessBossRequest(context.Background(), analysisRequest(QueryContentAnalysis))
	if resp.Success {
		t.Fatal("expected failure from recovered panic")
	}
	if resp.ErrorMessage == "" {
		t.Fatal("expected error message")
	}
}

func TestAgentUnparsableCompletionFallsBackToFeatures(t *testing.T) {
	provider := &stubProvider{fn: func(messages []ChatMessage, opts CompletionOptions) (Completion, error) {
		return Completion{Text: "sorry, no JSON today"}, nil
	}}
	agent := contentAgentForTest(provider, &stubMetrics{
		summary: ChannelSummary{Title: "Test"},
		videos:  sampleVideos(),
	}, nil)

	resp := agent.ProcessBossRequest(context.Background(), analysisRequest(QueryContentAnalysis))
	if !resp.Success {
		t.Fatalf("fallback should still succeed: %+v", resp)
	}
	if resp.Analysis.Summary == "" {
		t.Fatal("fallback summary missing")
	}
	if resp.Analysis.Metrics["average_views"] != 8000 {
		t.Fatalf("fallback metrics %v", resp.Analysis.Metrics)
	}
}
