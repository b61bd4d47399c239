package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/myta-ai/myta/internal/agent/telemetry"
)

const classificationPrompt = `You are an intent classifier for a YouTube creator analytics assistant.
Classify the user's message into exactly one category and extract any parameters.

Categories:
- content_analysis: video performance, views, what works, best/worst videos
- audience_insights: demographics, watch time, retention, who is watching
- seo_optimization: titles, tags, descriptions, thumbnails, discoverability
- competitive_analysis: other channels, competitors, benchmarking
- monetization: revenue, sponsorships, memberships, RPM/CPM
- general: anything else about the channel

Respond with ONLY a JSON object, no prose:
{
  "query_type": "<category>",
  "confidence": <0.0-1.0>,
  "time_period": "<e.g. last_30d, or empty>",
  "specific_videos": ["<video ids mentioned>"],
  "competitors": ["<channel names or ids mentioned>"],
  "focus_areas": ["<e.g. revenue, thumbnails>"],
  "depth": "<quick|standard|deep or empty>"
}

User message: %s`

// classificationResult is the strict JSON contract with the model.
type classificationResult struct {
	QueryType      string   `json:"query_type"`
	Confidence     float64  `json:"confidence"`
	TimePeriod     string   `json:"time_period"`
	SpecificVideos []string `json:"specific_videos"`
	Competitors    []string `json:"competitors"`
	FocusAreas     []string `json:"focus_areas"`
	Depth          string   `json:"depth"`
}

// Classification is the outcome of intent classification. Degraded marks
// results produced by the keyword heuristic rather than the model.
type Classification struct {
	Intent     QueryType
	Confidence float64
	Context    Context
	Degraded   bool
	TokensUsed int64
}

// IntentClassifier turns a free-form user message into a typed intent plus
// extracted parameters. It never returns an error: when the model call or
// its JSON cannot be used, it degrades to a keyword heuristic.
type IntentClassifier struct {
	provider  CompletionProvider
	model     string
	logger    *log.Logger
	telemetry *telemetry.Telemetry
}

func NewIntentClassifier(provider CompletionProvider, model string, tel *telemetry.Telemetry) *IntentClassifier {
	return &IntentClassifier{
		provider:  provider,
		model:     model,
		logger:    log.New(log.Writer(), "[CLASSIFIER] ", log.LstdFlags),
		telemetry: tel,
	}
}

// Classify classifies message, filling Context with any extracted
// parameters. channelID comes from the caller's user context, not the model.
func (c *IntentClassifier) Classify(ctx context.Context, message, channelID string) Classification {
	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	completion, err := c.provider.Complete(cctx, []ChatMessage{
		{Role: "user", Content: fmt.Sprintf(classificationPrompt, message)},
	}, CompletionOptions{Model: c.model, Temperature: 0.0, MaxTokens: 300})
	if err != nil {
		c.logger.Printf("classification call failed, using heuristic: %v", err)
		c.telemetry.RecordDegradedClassification(err.Error())
		return c.heuristic(message, channelID, 0)
	}

	var parsed classificationResult
	if err := DecodeCompletionJSON(completion.Text, &parsed); err != nil {
		c.logger.Printf("classification JSON unusable, using heuristic: %v", err)
		c.telemetry.RecordDegradedClassification(err.Error())
		return c.heuristic(message, channelID, completion.TokensUsed)
	}

	intent, ok := ParseQueryType(parsed.QueryType)
	if !ok {
		c.logger.Printf("unknown query_type %q, using heuristic", parsed.QueryType)
		c.telemetry.RecordDegradedClassification("unknown query_type " + parsed.QueryType)
		return c.heuristic(message, channelID, completion.TokensUsed)
	}

	return Classification{
		Intent:     intent,
		Confidence: clamp01(parsed.Confidence),
		Context: Context{
			ChannelID:      channelID,
			TimePeriod:     parsed.TimePeriod,
			SpecificVideos: parsed.SpecificVideos,
			Competitors:    parsed.Competitors,
			FocusAreas:     parsed.FocusAreas,
			Depth:          parsed.Depth,
		},
		TokensUsed: completion.TokensUsed,
	}
}

// heuristic is the keyword fallback. Performance-flavored vocabulary maps
// to content analysis, everything else to general.
func (c *IntentClassifier) heuristic(message, channelID string, tokens int64) Classification {
	lower := strings.ToLower(message)
	intent := QueryGeneral
	for _, kw := range []string{"best video", "views", "analytics", "performing"} {
		if strings.Contains(lower, kw) {
			intent = QueryContentAnalysis
			break
		}
	}
	return Classification{
		Intent:     intent,
		Confidence: 0.3,
		Context:    Context{ChannelID: channelID},
		Degraded:   true,
		TokensUsed: tokens,
	}
}
