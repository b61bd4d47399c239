package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/myta-ai/myta/internal/agent/telemetry"
)

// Static confidence each agent reports for a successful analysis. These
// reflect relative trust in each domain's grounding data, not a per-run
// measurement.
const (
	ConfidenceContentAnalysis     = 0.92
	ConfidenceAudienceInsights    = 0.88
	ConfidenceCompetitiveAnalysis = 0.85
	ConfidenceSEOOptimization     = 0.85
	ConfidenceMonetization        = 0.86
)

// Result cache TTLs tiered by analysis depth.
const (
	cacheTTLQuick    = 2 * time.Hour
	cacheTTLStandard = 6 * time.Hour
	cacheTTLDeep     = 12 * time.Hour
)

// analyzeFunc is the per-domain analysis step each specialized agent
// supplies. It may call the completion provider and the metrics provider;
// errors become structured failure responses in the base.
type analyzeFunc func(ctx context.Context, req AgentRequest) (Analysis, int64, error)

// baseAgent carries everything common to the five specialized agents:
// caller provenance check, domain relevance check, result caching, and
// panic containment. Agent failures never escape as errors or panics.
type baseAgent struct {
	agentID    string
	domain     QueryType
	confidence float64
	auth       OrchestratorAuth
	telemetry  *telemetry.Telemetry
	logger     *log.Logger
	cache      *resultCache
	analyze    analyzeFunc
}

func newBaseAgent(agentID string, domain QueryType, confidence float64, auth OrchestratorAuth, tel *telemetry.Telemetry) *baseAgent {
	return &baseAgent{
		agentID:    agentID,
		domain:     domain,
		confidence: confidence,
		auth:       auth,
		telemetry:  tel,
		logger:     log.New(log.Writer(), fmt.Sprintf("[AGENT:%s] ", agentID), log.LstdFlags),
		cache:      newResultCache(time.Now),
	}
}

func (a *baseAgent) AgentID() string   { return a.agentID }
func (a *baseAgent) Domain() QueryType { return a.domain }

// ProcessBossRequest runs the agent against req. It always returns a
// well-formed response; panics in the analysis step are recovered into a
// Success=false response.
func (a *baseAgent) ProcessBossRequest(ctx context.Context, req AgentRequest) (resp AgentResponse) {
	start := time.Now()
	resp = AgentResponse{
		AgentID:     a.agentID,
		RequestID:   req.RequestID,
		DomainMatch: true,
		CreatedAt:   start,
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Printf("recovered panic in %s: %v", a.agentID, r)
			resp.Success = false
			resp.ErrorMessage = fmt.Sprintf("internal agent error: %v", r)
			resp.Confidence = 0
			resp.ProcessingTime = time.Since(start)
		}
		a.telemetry.RecordAgentEvent(ctx, telemetry.AgentEvent{
			RequestID:   req.RequestID,
			AgentType:   a.agentID,
			StartTime:   start,
			EndTime:     time.Now(),
			Duration:    resp.ProcessingTime,
			Success:     resp.Success,
			DomainMatch: resp.DomainMatch,
			Error:       resp.ErrorMessage,
			TokensUsed:  resp.TokensUsed,
			Confidence:  resp.Confidence,
		})
	}()

	if a.auth != nil && !a.auth.ValidateCallerIsOrchestrator(req) {
		resp.Success = false
		resp.ErrorMessage = "request did not originate from the orchestrator"
		resp.ProcessingTime = time.Since(start)
		return resp
	}

	if !a.accepts(req) {
		// Out-of-domain is a routing signal, not a failure. No provider
		// call is made.
		resp.Success = true
		resp.DomainMatch = false
		resp.Confidence = 0
		resp.Analysis = Analysis{Summary: fmt.Sprintf("The %s agent does not handle %s queries.", a.agentID, req.QueryType)}
		resp.ProcessingTime = time.Since(start)
		return resp
	}

	key := a.cacheKey(req)
	if cached, ok := a.cache.get(key); ok {
		resp.Success = true
		resp.Analysis = cached
		resp.Confidence = a.confidence
		resp.ProcessingTime = time.Since(start)
		return resp
	}

	analysis, tokens, err := a.analyze(ctx, req)
	resp.TokensUsed = tokens
	resp.ProcessingTime = time.Since(start)
	if err != nil {
		a.logger.Printf("analysis failed for request %s: %v", req.RequestID, err)
		resp.Success = false
		resp.ErrorMessage = err.Error()
		resp.Confidence = 0
		return resp
	}

	resp.Success = true
	resp.Analysis = analysis
	resp.Confidence = a.confidence
	a.cache.set(key, analysis, ttlForDepth(req.Context.Depth))
	return resp
}

// accepts reports whether this agent's domain participates in handling
// the request's intent, per the selection rules.
func (a *baseAgent) accepts(req AgentRequest) bool {
	for _, d := range SelectAgents(req.QueryType, req.Context) {
		if d == a.domain {
			return true
		}
	}
	return false
}

// cacheKey folds the stable scoping fields of the request. Message text
// and request id are deliberately excluded so repeat questions about the
// same channel reuse the analysis.
func (a *baseAgent) cacheKey(req AgentRequest) string {
	comp := append([]string(nil), req.Context.Competitors...)
	sort.Strings(comp)
	return strings.Join([]string{
		req.Context.ChannelID,
		strings.Join(comp, "+"),
		req.Context.TimePeriod,
		req.Context.Depth,
	}, "|")
}

func ttlForDepth(depth string) time.Duration {
	switch depth {
	case "quick":
		return cacheTTLQuick
	case "deep":
		return cacheTTLDeep
	default:
		return cacheTTLStandard
	}
}

type resultEntry struct {
	analysis  Analysis
	expiresAt time.Time
}

// resultCache is the per-agent analysis cache. The clock is injectable
// for tests.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]resultEntry
	now     func() time.Time
}

func newResultCache(now func() time.Time) *resultCache {
	return &resultCache{entries: make(map[string]resultEntry), now: now}
}

func (c *resultCache) get(key string) (Analysis, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Analysis{}, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Analysis{}, false
	}
	return e.analysis, true
}

func (c *resultCache) set(key string, a Analysis, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = resultEntry{analysis: a, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}
