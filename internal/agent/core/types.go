package core

import (
	"context"
	"time"
)

// QueryType is the classified category of a user's question. It drives
// agent selection in the boss agent.
type QueryType string

const (
	QueryContentAnalysis     QueryType = "content_analysis"
	QueryAudienceInsights    QueryType = "audience_insights"
	QuerySEOOptimization     QueryType = "seo_optimization"
	QueryCompetitiveAnalysis QueryType = "competitive_analysis"
	QueryMonetization        QueryType = "monetization"
	QueryGeneral             QueryType = "general"
)

// AllQueryTypes lists every classifiable intent in canonical order.
var AllQueryTypes = []QueryType{
	QueryContentAnalysis,
	QueryAudienceInsights,
	QuerySEOOptimization,
	QueryCompetitiveAnalysis,
	QueryMonetization,
	QueryGeneral,
}

// ParseQueryType maps a raw intent string to a QueryType.
func ParseQueryType(s string) (QueryType, bool) {
	for _, q := range AllQueryTypes {
		if string(q) == s {
			return q, true
		}
	}
	return QueryGeneral, false
}

// Priority orders competing requests for scheduling/backpressure.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityBackground
)

// DateRange is an explicit start/end window for analytics queries.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Context carries the analytics scope of a single request. It is built
// fresh from parsed intent parameters on every dispatch and never mutated
// afterwards.
type Context struct {
	ChannelID      string     `json:"channel_id"`
	TimePeriod     string     `json:"time_period"` // e.g. "last_30d"
	CustomRange    *DateRange `json:"custom_range,omitempty"`
	SpecificVideos []string   `json:"specific_videos,omitempty"`
	Competitors    []string   `json:"competitors,omitempty"`
	FocusAreas     []string   `json:"focus_areas,omitempty"`
	Depth          string     `json:"depth,omitempty"` // quick, standard, deep
}

// TokenBudget caps the completion call issued on behalf of a request.
type TokenBudget struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// AgentRequest is the normalized unit of work handed to specialized
// agents. One request is built per boss-agent dispatch cycle and the same
// instance is shared across every activated agent; RequestID correlates
// the parallel fan-out results.
type AgentRequest struct {
	RequestID   string                 `json:"request_id"`
	Timestamp   time.Time              `json:"timestamp"`
	QueryType   QueryType              `json:"query_type"`
	Priority    Priority               `json:"priority"`
	Message     string                 `json:"message"`
	Context     Context                `json:"context"`
	TokenBudget TokenBudget            `json:"token_budget"`
	UserContext map[string]interface{} `json:"user_context,omitempty"`
	AuthToken   string                 `json:"-"`
}

// ImpactLevel grades an insight or recommendation.
type ImpactLevel string

const (
	ImpactHigh   ImpactLevel = "high"
	ImpactMedium ImpactLevel = "medium"
	ImpactLow    ImpactLevel = "low"
)

// Insight is a single evidence-backed observation from an agent.
type Insight struct {
	Insight    string      `json:"insight"`
	Evidence   string      `json:"evidence"`
	Impact     ImpactLevel `json:"impact"`
	Confidence float64     `json:"confidence"`
}

// Recommendation is an actionable suggestion from an agent.
type Recommendation struct {
	Recommendation string      `json:"recommendation"`
	ExpectedImpact ImpactLevel `json:"expected_impact"`
	Difficulty     ImpactLevel `json:"implementation_difficulty"`
	Reasoning      string      `json:"reasoning"`
}

// Analysis is the structured payload of a successful agent response.
type Analysis struct {
	Summary         string                 `json:"summary"`
	KeyInsights     []Insight              `json:"key_insights"`
	Recommendations []Recommendation       `json:"recommendations"`
	Metrics         map[string]float64     `json:"metrics,omitempty"`
	Detailed        map[string]interface{} `json:"detailed_analysis,omitempty"`
}

// AgentResponse is the immutable result of one specialized-agent
// invocation. Success=false carries ErrorMessage; DomainMatch=false marks
// a correctly-declined out-of-domain request, which is a routing signal
// rather than an error.
type AgentResponse struct {
	AgentID        string        `json:"agent_id"`
	RequestID      string        `json:"request_id"`
	Success        bool          `json:"success"`
	DomainMatch    bool          `json:"domain_match"`
	Analysis       Analysis      `json:"data"`
	Confidence     float64       `json:"confidence"`
	ProcessingTime time.Duration `json:"processing_time"`
	TokensUsed     int64         `json:"tokens_used"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ChatTurn is one incoming user message plus the context needed to answer it.
type ChatTurn struct {
	UserID      string                 `json:"user_id"`
	Message     string                 `json:"message"`
	UserContext map[string]interface{} `json:"user_context,omitempty"`
}

// ChatTurnResult is the final, user-facing outcome of a chat turn. The
// boss agent always produces a well-formed result; failures surface as
// Failure kinds plus a safe Response string, never as a raised error.
type ChatTurnResult struct {
	RequestID      string        `json:"request_id"`
	Response       string        `json:"response"`
	Intent         QueryType     `json:"intent"`
	AgentsUsed     []string      `json:"agents_used,omitempty"`
	Cached         bool          `json:"cached"`
	DirectAnswer   bool          `json:"direct_answer"`
	Failure        FailureKind   `json:"failure,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	TokensUsed     int64         `json:"tokens_used"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ChatMessage is one role/content pair sent to a completion provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions tune a single completion call.
type CompletionOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completion is the text plus usage returned by a completion provider.
type Completion struct {
	Text       string
	TokensUsed int64
}

// CompletionProvider is the abstract LLM text-generation capability.
// Concrete bindings (OpenAI, Gemini) live in factories.go.
type CompletionProvider interface {
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (Completion, error)
	CalculateCost(inputTokens, outputTokens int64, model string) float64
}

// ChannelSummary describes a channel's headline statistics.
type ChannelSummary struct {
	ChannelID       string    `json:"channel_id"`
	Title           string    `json:"title"`
	Niche           string    `json:"niche,omitempty"`
	SubscriberCount int64     `json:"subscriber_count"`
	VideoCount      int64     `json:"video_count"`
	TotalViews      int64     `json:"total_views"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// Video describes one uploaded video's metrics.
type Video struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Comments    int64     `json:"comments"`
	Duration    string    `json:"duration,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// ChannelMetricsProvider is the abstract YouTube analytics capability.
type ChannelMetricsProvider interface {
	GetChannelSummary(ctx context.Context, channelID string) (ChannelSummary, error)
	GetRecentVideos(ctx context.Context, channelID string, count int) ([]Video, error)
	GetCompetitorSummary(ctx context.Context, channelID string) (ChannelSummary, error)
}

// UserContextStore supplies channel_info/performance fields for a user.
// The orchestration core only ever reads from it.
type UserContextStore interface {
	GetUserContext(ctx context.Context, userID string) (map[string]interface{}, error)
}

// OrchestratorAuth lets specialized agents reject requests that did not
// originate from the boss agent.
type OrchestratorAuth interface {
	ValidateCallerIsOrchestrator(req AgentRequest) bool
}

// ResponseCache sits in front of the full classify/dispatch/synthesize
// pipeline. Keys are derived from the message, the stable user-context
// fields, and the intent; entries expire lazily on read.
type ResponseCache interface {
	Get(ctx context.Context, message string, userCtx map[string]interface{}, intent QueryType) (ChatTurnResult, bool)
	Set(ctx context.Context, message string, userCtx map[string]interface{}, result ChatTurnResult, intent QueryType)
	ClearExpired(ctx context.Context) int
}

// SpecializedAgent is the shared contract of the five domain agents.
// ProcessBossRequest never returns an error: failures come back as a
// well-formed response with Success=false.
type SpecializedAgent interface {
	AgentID() string
	Domain() QueryType
	ProcessBossRequest(ctx context.Context, req AgentRequest) AgentResponse
}
