package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/myta-ai/myta/internal/agent/telemetry"
)

// CompetitiveAnalysisAgent benchmarks the channel against named
// competitors.
type CompetitiveAnalysisAgent struct {
	*baseAgent
	provider CompletionProvider
	metrics  ChannelMetricsProvider
	opts     CompletionOptions
}

func NewCompetitiveAnalysisAgent(provider CompletionProvider, metrics ChannelMetricsProvider, auth OrchestratorAuth, tel *telemetry.Telemetry, opts CompletionOptions) *CompetitiveAnalysisAgent {
	a := &CompetitiveAnalysisAgent{
		baseAgent: newBaseAgent("competitive_analysis", QueryCompetitiveAnalysis, ConfidenceCompetitiveAnalysis, auth, tel),
		provider:  provider,
		metrics:   metrics,
		opts:      opts,
	}
	a.baseAgent.analyze = a.run
	return a
}

func (a *CompetitiveAnalysisAgent) run(ctx context.Context, req AgentRequest) (Analysis, int64, error) {
	own, err := a.metrics.GetChannelSummary(ctx, req.Context.ChannelID)
	if err != nil {
		return Analysis{}, 0, fmt.Errorf("fetching channel summary: %w", err)
	}

	var lines []string
	var subCounts []float64
	for _, comp := range req.Context.Competitors {
		cs, err := a.metrics.GetCompetitorSummary(ctx, comp)
		if err != nil {
			// A missing competitor degrades the comparison, it does not
			// abort the analysis.
			a.logger.Printf("competitor %s unavailable: %v", comp, err)
			continue
		}
		subCounts = append(subCounts, float64(cs.SubscriberCount))
		lines = append(lines, fmt.Sprintf("- %s: %s subscribers, %s total views, %s videos",
			cs.Title, FormatCount(cs.SubscriberCount), FormatCount(cs.TotalViews), FormatCount(cs.VideoCount)))
	}

	features := map[string]float64{
		"subscriber_count":      float64(own.SubscriberCount),
		"competitors_compared":  float64(len(subCounts)),
		"subscriber_percentile": PercentileRank(subCounts, float64(own.SubscriberCount)),
	}

	fallback := Analysis{
		Summary: fmt.Sprintf("Channel %s ranks above %.0f%% of the %d compared competitors by subscriber count.",
			own.Title, features["subscriber_percentile"]*100, len(subCounts)),
	}
	if len(subCounts) == 0 {
		fallback.Summary = fmt.Sprintf("No competitor data was available to compare against channel %s.", own.Title)
	}

	prompt := fmt.Sprintf(`You are a YouTube competitive analyst.

Your channel: %s (%s subscribers, %s total views)
Competitors:
%s
Subscriber percentile vs competitors: %.2f
User question: %s

Compare positioning, identify gaps the competitors exploit, and suggest how to differentiate. %s`,
		own.Title, FormatCount(own.SubscriberCount), FormatCount(own.TotalViews),
		strings.Join(lines, "\n"), features["subscriber_percentile"], req.Message, analysisJSONContract)

	return completeStructuredAnalysis(ctx, a.provider, a.opts, prompt, features, fallback)
}
