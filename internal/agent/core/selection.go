package core

import "strings"

// SelectAgents maps a classified intent to the set of agent domains to
// activate. Pure and deterministic: the same intent and parameters always
// produce the same ordered, deduplicated set.
//
// The primary domain for the intent comes first, then augmentations based
// on the request parameters, then companion domains that round out the
// analysis for that intent.
func SelectAgents(intent QueryType, ctx Context) []QueryType {
	var selected []QueryType
	add := func(q QueryType) {
		for _, s := range selected {
			if s == q {
				return
			}
		}
		selected = append(selected, q)
	}

	switch intent {
	case QueryContentAnalysis:
		add(QueryContentAnalysis)
		add(QuerySEOOptimization)
		add(QueryAudienceInsights)
	case QueryAudienceInsights:
		add(QueryAudienceInsights)
		add(QueryContentAnalysis)
	case QuerySEOOptimization:
		add(QuerySEOOptimization)
		add(QueryContentAnalysis)
	case QueryCompetitiveAnalysis:
		add(QueryCompetitiveAnalysis)
		add(QueryContentAnalysis)
		add(QueryAudienceInsights)
	case QueryMonetization:
		add(QueryMonetization)
		add(QueryAudienceInsights)
	default:
		// General questions get the broad pair.
		add(QueryContentAnalysis)
		add(QueryAudienceInsights)
	}

	if len(ctx.Competitors) > 0 {
		add(QueryCompetitiveAnalysis)
	}
	if len(ctx.SpecificVideos) > 0 {
		add(QueryContentAnalysis)
		add(QuerySEOOptimization)
	}
	for _, area := range ctx.FocusAreas {
		switch strings.ToLower(area) {
		case "revenue", "monetization", "sponsorship", "rpm", "cpm":
			add(QueryMonetization)
		}
	}
	return selected
}
