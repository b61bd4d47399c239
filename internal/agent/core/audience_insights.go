package core

import (
	"context"
	"fmt"

	"github.com/myta-ai/myta/internal/agent/telemetry"
)

// AudienceInsightsAgent analyzes who is watching and how they engage.
type AudienceInsightsAgent struct {
	*baseAgent
	provider CompletionProvider
	metrics  ChannelMetricsProvider
	opts     CompletionOptions
}

func NewAudienceInsightsAgent(provider CompletionProvider, metrics ChannelMetricsProvider, auth OrchestratorAuth, tel *telemetry.Telemetry, opts CompletionOptions) *AudienceInsightsAgent {
	a := &AudienceInsightsAgent{
		baseAgent: newBaseAgent("audience_insights", QueryAudienceInsights, ConfidenceAudienceInsights, auth, tel),
		provider:  provider,
		metrics:   metrics,
		opts:      opts,
	}
	a.baseAgent.analyze = a.run
	return a
}

func (a *AudienceInsightsAgent) run(ctx context.Context, req AgentRequest) (Analysis, int64, error) {
	summary, err := a.metrics.GetChannelSummary(ctx, req.Context.ChannelID)
	if err != nil {
		return Analysis{}, 0, fmt.Errorf("fetching channel summary: %w", err)
	}
	videos, err := a.metrics.GetRecentVideos(ctx, req.Context.ChannelID, 10)
	if err != nil {
		return Analysis{}, 0, fmt.Errorf("fetching recent videos: %w", err)
	}

	// Average engagement across recent videos approximates audience
	// involvement without per-viewer analytics.
	var engagementSum float64
	for _, v := range videos {
		engagementSum += EngagementRate(v.Views, v.Likes, v.Comments)
	}
	avgEngagement := 0.0
	if len(videos) > 0 {
		avgEngagement = engagementSum / float64(len(videos))
	}
	viewsPerSub := 0.0
	if summary.SubscriberCount > 0 {
		viewsPerSub = AverageViews(videos) / float64(summary.SubscriberCount)
	}

	features := map[string]float64{
		"average_engagement_rate": avgEngagement,
		"views_per_subscriber":    viewsPerSub,
		"subscriber_count":        float64(summary.SubscriberCount),
	}

	fallback := Analysis{
		Summary: fmt.Sprintf("Channel %s has %s subscribers with an average engagement rate of %.2f%% on recent uploads.",
			summary.Title, FormatCount(summary.SubscriberCount), avgEngagement*100),
	}

	prompt := fmt.Sprintf(`You are a YouTube audience analyst.

Channel: %s in niche %q (%s subscribers)
Computed metrics: average engagement rate %.4f, views per subscriber %.4f
Recent videos:
%s
User question: %s

Analyze the audience's engagement patterns and what they suggest about viewer loyalty and interests. %s`,
		summary.Title, summary.Niche, FormatCount(summary.SubscriberCount),
		avgEngagement, viewsPerSub, describeVideos(videos, 10), req.Message, analysisJSONContract)

	return completeStructuredAnalysis(ctx, a.provider, a.opts, prompt, features, fallback)
}
