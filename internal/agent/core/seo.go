package core

import (
	"context"
	"fmt"

	"github.com/myta-ai/myta/internal/agent/telemetry"
)

// SEOOptimizationAgent analyzes titles and metadata for discoverability.
type SEOOptimizationAgent struct {
	*baseAgent
	provider CompletionProvider
	metrics  ChannelMetricsProvider
	opts     CompletionOptions
}

func NewSEOOptimizationAgent(provider CompletionProvider, metrics ChannelMetricsProvider, auth OrchestratorAuth, tel *telemetry.Telemetry, opts CompletionOptions) *SEOOptimizationAgent {
	a := &SEOOptimizationAgent{
		baseAgent: newBaseAgent("seo_optimization", QuerySEOOptimization, ConfidenceSEOOptimization, auth, tel),
		provider:  provider,
		metrics:   metrics,
		opts:      opts,
	}
	a.baseAgent.analyze = a.run
	return a
}

func (a *SEOOptimizationAgent) run(ctx context.Context, req AgentRequest) (Analysis, int64, error) {
	videos, err := a.metrics.GetRecentVideos(ctx, req.Context.ChannelID, 10)
	if err != nil {
		return Analysis{}, 0, fmt.Errorf("fetching recent videos: %w", err)
	}

	var titleLenSum int
	for _, v := range videos {
		titleLenSum += len(v.Title)
	}
	avgTitleLen := 0.0
	if len(videos) > 0 {
		avgTitleLen = float64(titleLenSum) / float64(len(videos))
	}

	features := map[string]float64{
		"average_title_length": avgTitleLen,
		"average_views":        AverageViews(videos),
	}

	fallback := Analysis{
		Summary: fmt.Sprintf("Recent titles average %.0f characters. Titles between 40 and 60 characters tend to avoid truncation in search and suggested feeds.", avgTitleLen),
	}

	prompt := fmt.Sprintf(`You are a YouTube SEO specialist.

Recent videos (title, views):
%s
Average title length: %.0f characters.
User question: %s

Analyze the titles for searchability, keyword use, and click appeal, and suggest concrete improvements. %s`,
		describeVideos(videos, 10), avgTitleLen, req.Message, analysisJSONContract)

	return completeStructuredAnalysis(ctx, a.provider, a.opts, prompt, features, fallback)
}
