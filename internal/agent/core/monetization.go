package core

import (
	"context"
	"fmt"

	"github.com/myta-ai/myta/internal/agent/telemetry"
)

// MonetizationAgent analyzes revenue potential and sponsorship readiness.
type MonetizationAgent struct {
	*baseAgent
	provider CompletionProvider
	metrics  ChannelMetricsProvider
	opts     CompletionOptions
}

func NewMonetizationAgent(provider CompletionProvider, metrics ChannelMetricsProvider, auth OrchestratorAuth, tel *telemetry.Telemetry, opts CompletionOptions) *MonetizationAgent {
	a := &MonetizationAgent{
		baseAgent: newBaseAgent("monetization", QueryMonetization, ConfidenceMonetization, auth, tel),
		provider:  provider,
		metrics:   metrics,
		opts:      opts,
	}
	a.baseAgent.analyze = a.run
	return a
}

func (a *MonetizationAgent) run(ctx context.Context, req AgentRequest) (Analysis, int64, error) {
	summary, err := a.metrics.GetChannelSummary(ctx, req.Context.ChannelID)
	if err != nil {
		return Analysis{}, 0, fmt.Errorf("fetching channel summary: %w", err)
	}
	videos, err := a.metrics.GetRecentVideos(ctx, req.Context.ChannelID, 10)
	if err != nil {
		return Analysis{}, 0, fmt.Errorf("fetching recent videos: %w", err)
	}

	avgViews := AverageViews(videos)
	// Rough ad revenue band at typical $2-$5 RPM. Real RPM varies by
	// niche and geography; the model is told this is an estimate.
	monthlyViews := avgViews * UploadFrequencyPerWeek(videos) * 4.33
	features := map[string]float64{
		"average_views":            avgViews,
		"estimated_monthly_views":  monthlyViews,
		"est_monthly_revenue_low":  monthlyViews / 1000 * 2,
		"est_monthly_revenue_high": monthlyViews / 1000 * 5,
		"subscriber_count":         float64(summary.SubscriberCount),
	}

	fallback := Analysis{
		Summary: fmt.Sprintf("At roughly %s views per month, estimated ad revenue is $%.0f-$%.0f per month at typical RPMs.",
			FormatCount(int64(monthlyViews)), features["est_monthly_revenue_low"], features["est_monthly_revenue_high"]),
	}

	prompt := fmt.Sprintf(`You are a YouTube monetization strategist.

Channel: %s in niche %q (%s subscribers)
Computed metrics: average views %.0f, estimated monthly views %.0f,
estimated ad revenue $%.0f-$%.0f per month at typical RPMs.
User question: %s

Analyze revenue potential across ads, sponsorships, memberships and products for this channel size and niche. Treat the revenue figures as rough estimates. %s`,
		summary.Title, summary.Niche, FormatCount(summary.SubscriberCount),
		avgViews, monthlyViews, features["est_monthly_revenue_low"], features["est_monthly_revenue_high"],
		req.Message, analysisJSONContract)

	return completeStructuredAnalysis(ctx, a.provider, a.opts, prompt, features, fallback)
}
