package core

import (
	"context"
	"sync"
	"time"

	"github.com/myta-ai/myta/config"
	"github.com/myta-ai/myta/internal/agent/telemetry"
)

// stubProvider records every completion call and delegates to fn.
type stubProvider struct {
	mu    sync.Mutex
	calls int
	fn    func(messages []ChatMessage, opts CompletionOptions) (Completion, error)
}

func (s *stubProvider) Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (Completion, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fn == nil {
		return Completion{Text: "{}"}, nil
	}
	return s.fn(messages, opts)
}

func (s *stubProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	return 0
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubMetrics serves canned channel data.
type stubMetrics struct {
	summary ChannelSummary
	videos  []Video
	err     error
}

func (s *stubMetrics) GetChannelSummary(ctx context.Context, channelID string) (ChannelSummary, error) {
	return s.summary, s.err
}

func (s *stubMetrics) GetRecentVideos(ctx context.Context, channelID string, count int) ([]Video, error) {
	return s.videos, s.err
}

func (s *stubMetrics) GetCompetitorSummary(ctx context.Context, channelID string) (ChannelSummary, error) {
	return s.summary, s.err
}

// stubSpecAgent is a scripted specialized agent for boss-level tests.
type stubSpecAgent struct {
	id     string
	domain QueryType
	resp   AgentResponse

	mu    sync.Mutex
	calls int
}

func (s *stubSpecAgent) AgentID() string   { return s.id }
func (s *stubSpecAgent) Domain() QueryType { return s.domain }

func (s *stubSpecAgent) ProcessBossRequest(ctx context.Context, req AgentRequest) AgentResponse {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	resp := s.resp
	resp.AgentID = s.id
	resp.RequestID = req.RequestID
	return resp
}

func (s *stubSpecAgent) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// mapCache is a minimal in-memory ResponseCache for boss tests.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]ChatTurnResult
}

func newMapCache() *mapCache { return &mapCache{entries: make(map[string]ChatTurnResult)} }

func (m *mapCache) key(message string, intent QueryType) string {
	return message + "|" + string(intent)
}

func (m *mapCache) Get(ctx context.Context, message string, userCtx map[string]interface{}, intent QueryType) (ChatTurnResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[m.key(message, intent)]
	return r, ok
}

func (m *mapCache) Set(ctx context.Context, message string, userCtx map[string]interface{}, result ChatTurnResult, intent QueryType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.key(message, intent)] = result
}

func (m *mapCache) ClearExpired(ctx context.Context) int { return 0 }

func testTelemetry() *telemetry.Telemetry {
	return telemetry.NewTelemetry(config.TelemetryConfig{})
}

func sampleVideos() []Video {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return []Video{
		{VideoID: "v1", Title: "How I edit", Views: 12000, Likes: 800, Comments: 120, PublishedAt: base},
		{VideoID: "v2", Title: "Studio tour", Views: 8000, Likes: 400, Comments: 60, PublishedAt: base.AddDate(0, 0, 7)},
		{VideoID: "v3", Title: "Q&A", Views: 4000, Likes: 150, Comments: 40, PublishedAt: base.AddDate(0, 0, 14)},
	}
}
