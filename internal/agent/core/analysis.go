package core

import (
	"context"
	"fmt"
	"strings"
)

// completeStructuredAnalysis issues one completion call and decodes the
// result into an Analysis. A provider failure is an error; a completion
// whose JSON cannot be parsed degrades to the deterministic fallback built
// from local feature math, since the numbers are still correct even when
// the narrative is lost.
func completeStructuredAnalysis(ctx context.Context, provider CompletionProvider, opts CompletionOptions, prompt string, features map[string]float64, fallback Analysis) (Analysis, int64, error) {
	completion, err := provider.Complete(ctx, []ChatMessage{{Role: "user", Content: prompt}}, opts)
	if err != nil {
		return Analysis{}, 0, fmt.Errorf("completion: %w", err)
	}
	var analysis Analysis
	if err := DecodeCompletionJSON(completion.Text, &analysis); err != nil || strings.TrimSpace(analysis.Summary) == "" {
		fallback.Metrics = features
		return fallback, completion.TokensUsed, nil
	}
	for i := range analysis.KeyInsights {
		analysis.KeyInsights[i].Confidence = clamp01(analysis.KeyInsights[i].Confidence)
	}
	if analysis.Metrics == nil {
		analysis.Metrics = make(map[string]float64, len(features))
	}
	for k, v := range features {
		if _, ok := analysis.Metrics[k]; !ok {
			analysis.Metrics[k] = v
		}
	}
	return analysis, completion.TokensUsed, nil
}

const analysisJSONContract = `Respond with ONLY a JSON object, no prose:
{
  "summary": "<2-3 sentence summary>",
  "key_insights": [{"insight": "...", "evidence": "...", "impact": "high|medium|low", "confidence": 0.0}],
  "recommendations": [{"recommendation": "...", "expected_impact": "high|medium|low", "implementation_difficulty": "high|medium|low", "reasoning": "..."}],
  "metrics": {"<name>": 0.0}
}`

func describeVideos(videos []Video, limit int) string {
	if limit > len(videos) {
		limit = len(videos)
	}
	var b strings.Builder
	for _, v := range videos[:limit] {
		fmt.Fprintf(&b, "- %q: %s views, %s likes, %s comments, published %s\n",
			v.Title, FormatCount(v.Views), FormatCount(v.Likes), FormatCount(v.Comments),
			v.PublishedAt.Format("2006-01-02"))
	}
	return b.String()
}
