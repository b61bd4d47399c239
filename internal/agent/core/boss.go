package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/myta-ai/myta/config"
	"github.com/myta-ai/myta/internal/agent/telemetry"
)

const allAgentsFailedMessage = "I couldn't gather the analytics needed to answer that right now. Please try again in a few minutes."

// BossAgent orchestrates a chat turn: direct-answer shortcuts, response
// cache, intent classification, agent selection, parallel fan-out,
// synthesis, and cache write-back. Every phase degrades rather than
// fails: ProcessChatTurn always returns a usable ChatTurnResult.
type BossAgent struct {
	cfg        config.AgentsConfig
	logger     *log.Logger
	telemetry  *telemetry.Telemetry
	classifier *IntentClassifier
	agents     map[QueryType]SpecializedAgent
	provider   CompletionProvider
	synthOpts  CompletionOptions
	cache      ResponseCache
	userStore  UserContextStore
	authToken  string
	semaphore  chan struct{}
}

// bossAuth validates that a request carries the boss's provenance token.
type bossAuth struct{ token string }

func (b bossAuth) ValidateCallerIsOrchestrator(req AgentRequest) bool {
	return req.AuthToken != "" && req.AuthToken == b.token
}

// NewBossAgent wires the orchestration pipeline. agents maps each domain
// to its specialized agent; userStore may be nil when callers always
// supply user context inline.
func NewBossAgent(cfg config.AgentsConfig, tel *telemetry.Telemetry, classifier *IntentClassifier, agents map[QueryType]SpecializedAgent, provider CompletionProvider, synthOpts CompletionOptions, cache ResponseCache, userStore UserContextStore, authToken string) *BossAgent {
	cfg = cfg.Normalize()
	return &BossAgent{
		cfg:        cfg,
		logger:     log.New(log.Writer(), "[BOSS] ", log.LstdFlags),
		telemetry:  tel,
		classifier: classifier,
		agents:     agents,
		provider:   provider,
		synthOpts:  synthOpts,
		cache:      cache,
		userStore:  userStore,
		authToken:  authToken,
		semaphore:  make(chan struct{}, cfg.MaxConcurrentAgents),
	}
}

// NewOrchestratorAuth returns the provenance validator agents should be
// constructed with, bound to the same token as the boss.
func NewOrchestratorAuth(token string) OrchestratorAuth { return bossAuth{token: token} }

// ProcessChatTurn runs one full turn of the pipeline.
func (b *BossAgent) ProcessChatTurn(ctx context.Context, turn ChatTurn) ChatTurnResult {
	tracer := otel.Tracer("boss_agent")
	ctx, span := tracer.Start(ctx, "chat_turn", trace.WithAttributes(
		attribute.String("user_id", turn.UserID),
	))
	defer span.End()

	start := time.Now()
	requestID := uuid.New().String()
	ctx, cancel := context.WithTimeout(ctx, b.cfg.TurnTimeout)
	defer cancel()

	userCtx := turn.UserContext
	if userCtx == nil && b.userStore != nil {
		loaded, err := b.userStore.GetUserContext(ctx, turn.UserID)
		if err != nil {
			b.logger.Printf("user context unavailable for %s: %v", turn.UserID, err)
		} else {
			userCtx = loaded
		}
	}

	result := b.runTurn(ctx, tracer, requestID, turn.Message, userCtx)
	result.RequestID = requestID
	result.ProcessingTime = time.Since(start)
	result.CreatedAt = start

	span.SetAttributes(
		attribute.String("intent", string(result.Intent)),
		attribute.Bool("cached", result.Cached),
		attribute.Bool("direct_answer", result.DirectAnswer),
		attribute.String("failure", string(result.Failure)),
	)
	if result.Failure == FailureAllAgentsFailed {
		span.SetStatus(codes.Error, string(result.Failure))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	b.telemetry.RecordTurnEvent(ctx, telemetry.TurnEvent{
		RequestID:      requestID,
		Intent:         string(result.Intent),
		StartTime:      start,
		EndTime:        time.Now(),
		ProcessingTime: result.ProcessingTime,
		Success:        result.Failure == FailureNone || result.Failure == FailureSynthesisFailure || result.Failure == FailureClassificationDegraded,
		Cached:         result.Cached,
		DirectAnswer:   result.DirectAnswer,
		Failure:        string(result.Failure),
		TokensUsed:     result.TokensUsed,
		AgentsUsed:     result.AgentsUsed,
	})
	return result
}

func (b *BossAgent) runTurn(ctx context.Context, tracer trace.Tracer, requestID, message string, userCtx map[string]interface{}) ChatTurnResult {
	// Direct answers skip every other phase, including classification.
	if answer, ok := DirectAnswer(message, userCtx); ok {
		return ChatTurnResult{Response: answer, Intent: QueryGeneral, DirectAnswer: true}
	}

	cctx, classifySpan := tracer.Start(ctx, "classify")
	classification := b.classifier.Classify(cctx, message, ChannelIDFromContext(userCtx))
	classifySpan.SetAttributes(
		attribute.String("intent", string(classification.Intent)),
		attribute.Float64("confidence", classification.Confidence),
		attribute.Bool("degraded", classification.Degraded),
	)
	classifySpan.End()

	if b.cache != nil {
		if cached, ok := b.cache.Get(ctx, message, userCtx, classification.Intent); ok {
			cached.Cached = true
			return cached
		}
	}

	req := AgentRequest{
		RequestID:   requestID,
		Timestamp:   time.Now(),
		QueryType:   classification.Intent,
		Priority:    PriorityHigh,
		Message:     message,
		Context:     classification.Context,
		TokenBudget: TokenBudget{InputTokens: 4000, OutputTokens: 1200},
		UserContext: userCtx,
		AuthToken:   b.authToken,
	}

	selected := SelectAgents(classification.Intent, classification.Context)
	responses := b.dispatch(ctx, tracer, req, selected)

	var usable []AgentResponse
	var agentsUsed []string
	var tokens int64
	for _, r := range responses {
		tokens += r.TokensUsed
		if r.Success && r.DomainMatch {
			usable = append(usable, r)
			agentsUsed = append(agentsUsed, r.AgentID)
		}
	}
	tokens += classification.TokensUsed

	failure := FailureNone
	if classification.Degraded {
		failure = FailureClassificationDegraded
	}

	if len(usable) == 0 {
		b.logger.Printf("all %d agents failed for request %s", len(selected), requestID)
		return ChatTurnResult{
			Response:   allAgentsFailedMessage,
			Intent:     classification.Intent,
			Failure:    FailureAllAgentsFailed,
			TokensUsed: tokens,
		}
	}

	sctx, synthSpan := tracer.Start(ctx, "synthesize", trace.WithAttributes(
		attribute.Int("usable_agents", len(usable)),
	))
	response, synthTokens, err := b.synthesize(sctx, message, userCtx, usable)
	tokens += synthTokens
	if err != nil {
		synthSpan.RecordError(err)
		synthSpan.SetStatus(codes.Error, "synthesis failed")
		b.logger.Printf("synthesis failed for request %s, falling back to concatenation: %v", requestID, err)
		response = concatenateAnalyses(usable)
		failure = FailureSynthesisFailure
	} else {
		synthSpan.SetStatus(codes.Ok, "")
	}
	synthSpan.End()

	result := ChatTurnResult{
		Response:   response,
		Intent:     classification.Intent,
		AgentsUsed: agentsUsed,
		Failure:    failure,
		TokensUsed: tokens,
	}

	if b.cache != nil && failure != FailureSynthesisFailure {
		b.cache.Set(ctx, message, userCtx, result, classification.Intent)
	}
	return result
}

// dispatch fans the shared request out to the selected agents in
// parallel, bounded by the concurrency semaphore, and collects every
// response. Individual agent failures surface as failed responses, never
// as missing entries.
func (b *BossAgent) dispatch(ctx context.Context, tracer trace.Tracer, req AgentRequest, selected []QueryType) []AgentResponse {
	ctx, span := tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.Int("agents", len(selected)),
	))
	defer span.End()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		responses []AgentResponse
	)
	for _, domain := range selected {
		agent, ok := b.agents[domain]
		if !ok {
			b.logger.Printf("no agent registered for domain %s", domain)
			continue
		}
		wg.Add(1)
		go func(agent SpecializedAgent) {
			defer wg.Done()
			b.semaphore <- struct{}{}
			defer func() { <-b.semaphore }()

			actx, cancel := context.WithTimeout(ctx, b.cfg.AgentTimeout)
			defer cancel()
			resp := agent.ProcessBossRequest(actx, req)

			mu.Lock()
			responses = append(responses, resp)
			mu.Unlock()
		}(agent)
	}
	wg.Wait()
	return responses
}

const synthesisPrompt = `You are the assistant for a YouTube creator. Several analysts have
examined the creator's question; weave their findings into one coherent,
conversational answer. Answer the exact question first, using the literal
channel numbers below when they apply. Do not mention the analysts or the
process. Prefer specific numbers over generalities, and end with the most
actionable recommendation.

Channel facts:
%s
Creator's question: %s

Analyst findings:
%s`

// channelFacts renders the stored channel numbers for the synthesis
// prompt so the model quotes real figures instead of inventing them.
func channelFacts(userCtx map[string]interface{}) string {
	var b strings.Builder
	if n, ok := channelInfoNumber(userCtx, "subscriber_count"); ok {
		fmt.Fprintf(&b, "- %s subscribers\n", FormatCount(n))
	}
	if n, ok := channelInfoNumber(userCtx, "total_views", "total_view_count"); ok {
		fmt.Fprintf(&b, "- %s total views\n", FormatCount(n))
	}
	if n, ok := channelInfoNumber(userCtx, "video_count"); ok {
		fmt.Fprintf(&b, "- %s videos published\n", FormatCount(n))
	}
	if v, ok := performanceNumber(userCtx, "avg_ctr"); ok {
		fmt.Fprintf(&b, "- %.1f%% average click-through rate\n", v)
	}
	if v, ok := performanceNumber(userCtx, "avg_retention"); ok {
		fmt.Fprintf(&b, "- %.1f%% average retention\n", v)
	}
	if v, ok := performanceNumber(userCtx, "engagement_rate"); ok {
		fmt.Fprintf(&b, "- %.1f%% engagement rate\n", v)
	}
	if b.Len() == 0 {
		return "- none on file\n"
	}
	return b.String()
}

func (b *BossAgent) synthesize(ctx context.Context, message string, userCtx map[string]interface{}, responses []AgentResponse) (string, int64, error) {
	var findings strings.Builder
	for _, r := range responses {
		fmt.Fprintf(&findings, "[%s] (confidence %.2f)\n%s\n", r.AgentID, r.Confidence, r.Analysis.Summary)
		for _, ins := range r.Analysis.KeyInsights {
			fmt.Fprintf(&findings, "- insight: %s (%s impact)\n", ins.Insight, ins.Impact)
		}
		for _, rec := range r.Analysis.Recommendations {
			fmt.Fprintf(&findings, "- recommendation: %s\n", rec.Recommendation)
		}
		findings.WriteString("\n")
	}

	completion, err := b.provider.Complete(ctx, []ChatMessage{
		{Role: "user", Content: fmt.Sprintf(synthesisPrompt, channelFacts(userCtx), message, findings.String())},
	}, b.synthOpts)
	if err != nil {
		return "", 0, err
	}
	text := strings.TrimSpace(completion.Text)
	if text == "" {
		return "", completion.TokensUsed, fmt.Errorf("empty synthesis completion")
	}
	return text, completion.TokensUsed, nil
}

// concatenateAnalyses is the synthesis fallback: agent summaries joined
// in dispatch order, clearly sectioned.
func concatenateAnalyses(responses []AgentResponse) string {
	var b strings.Builder
	b.WriteString("Here is what the analysis found:\n")
	for _, r := range responses {
		fmt.Fprintf(&b, "\n%s:\n%s\n", strings.ReplaceAll(r.AgentID, "_", " "), r.Analysis.Summary)
		for _, rec := range r.Analysis.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec.Recommendation)
		}
	}
	return b.String()
}

// ProcessAgentTask runs a single specialized agent directly, for the
// per-agent task API. The request is stamped with the boss's provenance
// token so the agent accepts it.
func (b *BossAgent) ProcessAgentTask(ctx context.Context, domain QueryType, message string, userCtx map[string]interface{}) (AgentResponse, error) {
	agent, ok := b.agents[domain]
	if !ok {
		return AgentResponse{}, fmt.Errorf("no agent registered for domain %s", domain)
	}
	actx, cancel := context.WithTimeout(ctx, b.cfg.AgentTimeout)
	defer cancel()
	req := AgentRequest{
		RequestID:   uuid.New().String(),
		Timestamp:   time.Now(),
		QueryType:   domain,
		Priority:    PriorityMedium,
		Message:     message,
		Context:     Context{ChannelID: ChannelIDFromContext(userCtx)},
		TokenBudget: TokenBudget{InputTokens: 4000, OutputTokens: 1200},
		UserContext: userCtx,
		AuthToken:   b.authToken,
	}
	return agent.ProcessBossRequest(actx, req), nil
}
