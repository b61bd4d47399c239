package telemetry

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/myta-ai/myta/config"
)

// Telemetry provides monitoring and cost tracking for chat turns
type Telemetry struct {
	config      config.TelemetryConfig
	logger      *log.Logger
	metrics     *Metrics
	costTracker *CostTracker
	mu          sync.RWMutex
}

// Metrics holds various performance metrics
type Metrics struct {
	// Turn metrics
	TotalTurns      int64
	SuccessfulTurns int64
	FailedTurns     int64
	CachedTurns     int64
	DirectAnswers   int64
	AverageTurnTime time.Duration

	// Classification metrics
	Classifications         map[string]int64 // intent -> count
	DegradedClassifications int64

	// Agent metrics
	AgentExecutions   map[string]int64
	AgentSuccessRates map[string]float64
	AgentAverageTimes map[string]time.Duration
	DomainMismatches  map[string]int64

	// LLM metrics
	LLMRequests   map[string]int64
	LLMTokensUsed map[string]int64
}

// CostTracker tracks costs across LLM models and pipeline stages
type CostTracker struct {
	mu sync.RWMutex

	StageCosts map[string]float64 // classification/analysis/synthesis -> cost
	ModelCosts map[string]float64 // model -> cost

	TotalCost   float64
	TotalTokens int64
}

// TurnEvent represents a completed chat turn
type TurnEvent struct {
	RequestID      string
	Intent         string
	StartTime      time.Time
	EndTime        time.Time
	ProcessingTime time.Duration
	Success        bool
	Cached         bool
	DirectAnswer   bool
	Failure        string
	Cost           float64
	TokensUsed     int64
	AgentsUsed     []string
	ModelsUsed     []string
}

// AgentEvent represents a specialized-agent execution
type AgentEvent struct {
	RequestID   string
	AgentType   string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Success     bool
	DomainMatch bool
	Error       string
	Cost        float64
	TokensUsed  int64
	ModelUsed   string
	Confidence  float64
}

// NewTelemetry creates a new telemetry instance
func NewTelemetry(config config.TelemetryConfig) *Telemetry {
	t := &Telemetry{
		config: config,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: &Metrics{
			Classifications:   make(map[string]int64),
			AgentExecutions:   make(map[string]int64),
			AgentSuccessRates: make(map[string]float64),
			AgentAverageTimes: make(map[string]time.Duration),
			DomainMismatches:  make(map[string]int64),
			LLMRequests:       make(map[string]int64),
			LLMTokensUsed:     make(map[string]int64),
		},
		costTracker: &CostTracker{
			StageCosts: make(map[string]float64),
			ModelCosts: make(map[string]float64),
		},
	}

	if config.Enabled && config.PeriodicLogs {
		go t.startMetricsCollection()
	}

	return t
}

// RecordTurnEvent records a complete chat turn
func (t *Telemetry) RecordTurnEvent(ctx context.Context, event TurnEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.TotalTurns++
	if event.Success {
		t.metrics.SuccessfulTurns++
	} else {
		t.metrics.FailedTurns++
	}
	if event.Cached {
		t.metrics.CachedTurns++
	}
	if event.DirectAnswer {
		t.metrics.DirectAnswers++
	}
	t.metrics.Classifications[event.Intent]++

	if t.metrics.TotalTurns == 1 {
		t.metrics.AverageTurnTime = event.ProcessingTime
	} else {
		total := t.metrics.AverageTurnTime * time.Duration(t.metrics.TotalTurns-1)
		t.metrics.AverageTurnTime = (total + event.ProcessingTime) / time.Duration(t.metrics.TotalTurns)
	}

	for _, model := range event.ModelsUsed {
		t.metrics.LLMRequests[model]++
		t.metrics.LLMTokensUsed[model] += event.TokensUsed
	}

	t.costTracker.TotalCost += event.Cost
	t.costTracker.TotalTokens += event.TokensUsed

	t.logger.Printf("Turn Event: ID=%s, Intent=%s, Success=%t, Cached=%t, Duration=%v, Cost=$%.4f, Tokens=%d",
		event.RequestID, event.Intent, event.Success, event.Cached, event.ProcessingTime, event.Cost, event.TokensUsed)
}

// RecordAgentEvent records a specialized-agent execution
func (t *Telemetry) RecordAgentEvent(ctx context.Context, event AgentEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.AgentExecutions[event.AgentType]++
	if !event.DomainMatch {
		t.metrics.DomainMismatches[event.AgentType]++
	}

	currentSuccess := t.metrics.AgentSuccessRates[event.AgentType]
	currentExecutions := t.metrics.AgentExecutions[event.AgentType]
	if event.Success {
		currentSuccess += 1.0
	}
	t.metrics.AgentSuccessRates[event.AgentType] = currentSuccess / float64(currentExecutions)

	currentAvg := t.metrics.AgentAverageTimes[event.AgentType]
	if currentExecutions == 1 {
		t.metrics.AgentAverageTimes[event.AgentType] = event.Duration
	} else {
		total := currentAvg * time.Duration(currentExecutions-1)
		t.metrics.AgentAverageTimes[event.AgentType] = (total + event.Duration) / time.Duration(currentExecutions)
	}

	if event.ModelUsed != "" {
		t.metrics.LLMRequests[event.ModelUsed]++
		t.metrics.LLMTokensUsed[event.ModelUsed] += event.TokensUsed
		t.costTracker.ModelCosts[event.ModelUsed] += event.Cost
	}

	t.costTracker.TotalCost += event.Cost
	t.costTracker.TotalTokens += event.TokensUsed

	t.logger.Printf("Agent Event: Type=%s, Success=%t, DomainMatch=%t, Duration=%v, Cost=$%.4f, Confidence=%.2f",
		event.AgentType, event.Success, event.DomainMatch, event.Duration, event.Cost, event.Confidence)
}

// RecordDegradedClassification counts a classification that fell back to
// the keyword heuristic.
func (t *Telemetry) RecordDegradedClassification(reason string) {
	if !t.config.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.DegradedClassifications++
	t.logger.Printf("Classification degraded: %s", reason)
}

// RecordStageCost attributes a completion cost to a pipeline stage.
func (t *Telemetry) RecordStageCost(stage, model string, cost float64, tokens int64) {
	if !t.config.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.costTracker.StageCosts[stage] += cost
	t.costTracker.ModelCosts[model] += cost
	t.costTracker.TotalCost += cost
	t.costTracker.TotalTokens += tokens
}

// GetMetrics returns current metrics snapshot
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	metrics := Metrics{
		TotalTurns:              t.metrics.TotalTurns,
		SuccessfulTurns:         t.metrics.SuccessfulTurns,
		FailedTurns:             t.metrics.FailedTurns,
		CachedTurns:             t.metrics.CachedTurns,
		DirectAnswers:           t.metrics.DirectAnswers,
		AverageTurnTime:         t.metrics.AverageTurnTime,
		DegradedClassifications: t.metrics.DegradedClassifications,
		Classifications:         make(map[string]int64),
		AgentExecutions:         make(map[string]int64),
		AgentSuccessRates:       make(map[string]float64),
		AgentAverageTimes:       make(map[string]time.Duration),
		DomainMismatches:        make(map[string]int64),
		LLMRequests:             make(map[string]int64),
		LLMTokensUsed:           make(map[string]int64),
	}

	for k, v := range t.metrics.Classifications {
		metrics.Classifications[k] = v
	}
	for k, v := range t.metrics.AgentExecutions {
		metrics.AgentExecutions[k] = v
	}
	for k, v := range t.metrics.AgentSuccessRates {
		metrics.AgentSuccessRates[k] = v
	}
	for k, v := range t.metrics.AgentAverageTimes {
		metrics.AgentAverageTimes[k] = v
	}
	for k, v := range t.metrics.DomainMismatches {
		metrics.DomainMismatches[k] = v
	}
	for k, v := range t.metrics.LLMRequests {
		metrics.LLMRequests[k] = v
	}
	for k, v := range t.metrics.LLMTokensUsed {
		metrics.LLMTokensUsed[k] = v
	}

	return metrics
}

// GetCostSummary returns current cost summary
func (t *Telemetry) GetCostSummary() CostSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	summary := CostSummary{
		TotalCost:   t.costTracker.TotalCost,
		TotalTokens: t.costTracker.TotalTokens,
		StageCosts:  make(map[string]float64),
		ModelCosts:  make(map[string]float64),
	}

	for k, v := range t.costTracker.StageCosts {
		summary.StageCosts[k] = v
	}
	for k, v := range t.costTracker.ModelCosts {
		summary.ModelCosts[k] = v
	}

	return summary
}

// CostSummary provides a summary of costs
type CostSummary struct {
	TotalCost   float64
	TotalTokens int64
	StageCosts  map[string]float64
	ModelCosts  map[string]float64
}

// startMetricsCollection starts periodic metrics collection
func (t *Telemetry) startMetricsCollection() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		metrics := t.GetMetrics()
		costs := t.GetCostSummary()

		t.logger.Printf("Metrics Snapshot: Turns=%d/%d, Cached=%d, Direct=%d, AvgTime=%v, TotalCost=$%.4f, TotalTokens=%d",
			metrics.SuccessfulTurns, metrics.TotalTurns, metrics.CachedTurns,
			metrics.DirectAnswers, metrics.AverageTurnTime, costs.TotalCost, costs.TotalTokens)
	}
}

// Shutdown gracefully shuts down the telemetry system
func (t *Telemetry) Shutdown() {
	t.logger.Println("Shutting down telemetry system...")

	metrics := t.GetMetrics()
	costs := t.GetCostSummary()

	if metrics.TotalTurns == 0 {
		return
	}
	t.logger.Printf("Final Report:")
	t.logger.Printf("  Total Turns: %d", metrics.TotalTurns)
	t.logger.Printf("  Success Rate: %.2f%%", float64(metrics.SuccessfulTurns)/float64(metrics.TotalTurns)*100)
	t.logger.Printf("  Average Turn Time: %v", metrics.AverageTurnTime)
	t.logger.Printf("  Degraded Classifications: %d", metrics.DegradedClassifications)
	t.logger.Printf("  Total Cost: $%.4f", costs.TotalCost)
	t.logger.Printf("  Total Tokens: %d", costs.TotalTokens)
}

// GetPerformanceReport returns a detailed performance report
func (t *Telemetry) GetPerformanceReport() string {
	metrics := t.GetMetrics()
	costs := t.GetCostSummary()

	if metrics.TotalTurns == 0 {
		return "no turns recorded"
	}

	report := fmt.Sprintf(`
=== PERFORMANCE REPORT ===
Overall Metrics:
  Total Turns: %d
  Successful: %d (%.2f%%)
  Failed: %d
  Cached: %d
  Direct Answers: %d
  Degraded Classifications: %d
  Average Turn Time: %v
  Total Cost: $%.4f
  Total Tokens: %d

Agent Performance:
`, metrics.TotalTurns, metrics.SuccessfulTurns,
		float64(metrics.SuccessfulTurns)/float64(metrics.TotalTurns)*100,
		metrics.FailedTurns, metrics.CachedTurns, metrics.DirectAnswers,
		metrics.DegradedClassifications, metrics.AverageTurnTime,
		costs.TotalCost, costs.TotalTokens)

	for agent, executions := range metrics.AgentExecutions {
		successRate := metrics.AgentSuccessRates[agent]
		avgTime := metrics.AgentAverageTimes[agent]
		report += fmt.Sprintf("  %s: %d executions, %.2f%% success, %v avg time, %d domain mismatches\n",
			agent, executions, successRate*100, avgTime, metrics.DomainMismatches[agent])
	}

	report += "\nLLM Usage:\n"
	for model, requests := range metrics.LLMRequests {
		tokens := metrics.LLMTokensUsed[model]
		cost := costs.ModelCosts[model]
		report += fmt.Sprintf("  %s: %d requests, %d tokens, $%.4f\n",
			model, requests, tokens, cost)
	}

	return report
}
