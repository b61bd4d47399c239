package core

import (
	"context"
	"fmt"

	"github.com/myta-ai/myta/internal/agent/telemetry"
)

// ContentAnalysisAgent analyzes video performance: what works, what
// doesn't, and how recent uploads compare to the channel's baseline.
type ContentAnalysisAgent struct {
	*baseAgent
	provider CompletionProvider
	metrics  ChannelMetricsProvider
	opts     CompletionOptions
}

func NewContentAnalysisAgent(provider CompletionProvider, metrics ChannelMetricsProvider, auth OrchestratorAuth, tel *telemetry.Telemetry, opts CompletionOptions) *ContentAnalysisAgent {
	a := &ContentAnalysisAgent{
		baseAgent: newBaseAgent("content_analysis", QueryContentAnalysis, ConfidenceContentAnalysis, auth, tel),
		provider:  provider,
		metrics:   metrics,
		opts:      opts,
	}
	a.baseAgent.analyze = a.run
	return a
}

func (a *ContentAnalysisAgent) run(ctx context.Context, req AgentRequest) (Analysis, int64, error) {
	summary, err := a.metrics.GetChannelSummary(ctx, req.Context.ChannelID)
	if err != nil {
		return Analysis{}, 0, fmt.Errorf("fetching channel summary: %w", err)
	}
	videos, err := a.metrics.GetRecentVideos(ctx, req.Context.ChannelID, 10)
	if err != nil {
		return Analysis{}, 0, fmt.Errorf("fetching recent videos: %w", err)
	}

	features := map[string]float64{
		"average_views":    AverageViews(videos),
		"uploads_per_week": UploadFrequencyPerWeek(videos),
		"subscriber_count": float64(summary.SubscriberCount),
		"total_views":      float64(summary.TotalViews),
	}
	var bestLine string
	if best, ok := BestPerformingVideo(videos); ok {
		features["best_video_views"] = float64(best.Views)
		features["best_video_engagement"] = EngagementRate(best.Views, best.Likes, best.Comments)
		bestLine = fmt.Sprintf("Best performing recent video: %q with %s views.", best.Title, FormatCount(best.Views))
	}

	fallback := Analysis{
		Summary: fmt.Sprintf("Channel %s averages %s views per recent video across %d uploads. %s",
			summary.Title, FormatCount(int64(features["average_views"])), len(videos), bestLine),
	}

	prompt := fmt.Sprintf(`You are a YouTube content performance analyst.

Channel: %s (%s subscribers, %s total views)
Computed metrics: average views %.0f, uploads/week %.2f
%s
Recent videos:
%s
User question: %s

Analyze what content is working and why. %s`,
		summary.Title, FormatCount(summary.SubscriberCount), FormatCount(summary.TotalViews),
		features["average_views"], features["uploads_per_week"],
		bestLine, describeVideos(videos, 10), req.Message, analysisJSONContract)

	return completeStructuredAnalysis(ctx, a.provider, a.opts, prompt, features, fallback)
}
