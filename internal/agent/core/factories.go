package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/myta-ai/myta/config"
	"github.com/myta-ai/myta/internal/agent/telemetry"
)

// NewCompletionProvider builds a provider from its config block.
func NewCompletionProvider(name string, cfg config.LLMProvider) (CompletionProvider, error) {
	http := NewHTTPClient(cfg.Timeout, cfg.MaxRetries, 0)
	switch cfg.Type {
	case "openai":
		base := cfg.BaseURL
		if base == "" {
			base = "https://api.openai.com/v1"
		}
		return &openAIProvider{
			name:   name,
			http:   http,
			apiKey: cfg.APIKey,
			base:   base,
			cfg:    cfg,
			logger: log.New(log.Writer(), "[OPENAI] ", log.LstdFlags),
		}, nil
	case "gemini":
		base := cfg.BaseURL
		if base == "" {
			base = "https://generativelanguage.googleapis.com/v1beta"
		}
		return &geminiProvider{
			name:   name,
			http:   http,
			apiKey: cfg.APIKey,
			base:   base,
			cfg:    cfg,
			logger: log.New(log.Writer(), "[GEMINI] ", log.LstdFlags),
		}, nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

// ProviderSet resolves routing strings of the form "provider/model" to a
// concrete provider plus completion options.
type ProviderSet struct {
	providers map[string]CompletionProvider
	configs   map[string]config.LLMProvider
}

func NewProviderSet(cfg config.LLMConfig) (*ProviderSet, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}
	set := &ProviderSet{
		providers: make(map[string]CompletionProvider),
		configs:   make(map[string]config.LLMProvider),
	}
	for name, pc := range cfg.Providers {
		p, err := NewCompletionProvider(name, pc)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		set.providers[name] = p
		set.configs[name] = pc
	}
	return set, nil
}

// Resolve maps a "provider/model" route to the provider and the model's
// configured options.
func (s *ProviderSet) Resolve(route string) (CompletionProvider, CompletionOptions, error) {
	parts := strings.SplitN(route, "/", 2)
	if len(parts) != 2 {
		return nil, CompletionOptions{}, fmt.Errorf("route %q must be provider/model", route)
	}
	provider, ok := s.providers[parts[0]]
	if !ok {
		return nil, CompletionOptions{}, fmt.Errorf("unknown provider %q in route %q", parts[0], route)
	}
	opts := CompletionOptions{Model: parts[1], Temperature: 0.4, MaxTokens: 1200}
	if mc, ok := s.configs[parts[0]].Models[parts[1]]; ok {
		if mc.APIName != "" {
			opts.Model = mc.APIName
		}
		if mc.Temperature > 0 {
			opts.Temperature = mc.Temperature
		}
		if mc.MaxTokens > 0 {
			opts.MaxTokens = mc.MaxTokens
		}
	}
	return provider, opts, nil
}

// NewAgents builds the full set of specialized agents keyed by domain.
func NewAgents(provider CompletionProvider, opts CompletionOptions, metrics ChannelMetricsProvider, auth OrchestratorAuth, tel *telemetry.Telemetry) map[QueryType]SpecializedAgent {
	return map[QueryType]SpecializedAgent{
		QueryContentAnalysis:     NewContentAnalysisAgent(provider, metrics, auth, tel, opts),
		QueryAudienceInsights:    NewAudienceInsightsAgent(provider, metrics, auth, tel, opts),
		QuerySEOOptimization:     NewSEOOptimizationAgent(provider, metrics, auth, tel, opts),
		QueryCompetitiveAnalysis: NewCompetitiveAnalysisAgent(provider, metrics, auth, tel, opts),
		QueryMonetization:        NewMonetizationAgent(provider, metrics, auth, tel, opts),
	}
}

// openAIProvider speaks the OpenAI chat completions API.
type openAIProvider struct {
	name   string
	http   *HTTPClient
	apiKey string
	base   string
	cfg    config.LLMProvider
	logger *log.Logger
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int64 `json:"total_tokens"`
	} `json:"usage"`
}

func (p *openAIProvider) Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (Completion, error) {
	reqMessages := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, openAIMessage{Role: m.Role, Content: m.Content})
	}
	var resp openAIResponse
	err := p.http.DoJSON(ctx, "POST", p.base+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + p.apiKey},
		openAIRequest{Model: opts.Model, Messages: reqMessages, Temperature: opts.Temperature, MaxTokens: opts.MaxTokens},
		&resp)
	if err != nil {
		return Completion{}, &ProviderError{Provider: p.name, Model: opts.Model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return Completion{}, &ProviderError{Provider: p.name, Model: opts.Model, Err: fmt.Errorf("no choices in response")}
	}
	return Completion{Text: resp.Choices[0].Message.Content, TokensUsed: resp.Usage.TotalTokens}, nil
}

func (p *openAIProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	return calculateCost(p.cfg, inputTokens, outputTokens, model)
}

// geminiProvider speaks the Gemini generateContent API.
type geminiProvider struct {
	name   string
	http   *HTTPClient
	apiKey string
	base   string
	cfg    config.LLMProvider
	logger *log.Logger
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int64 `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (p *geminiProvider) Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (Completion, error) {
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.base, opts.Model, p.apiKey)
	var resp geminiResponse
	err := p.http.DoJSON(ctx, "POST", url, nil, geminiRequest{
		Contents:         contents,
		GenerationConfig: geminiGenConfig{Temperature: opts.Temperature, MaxOutputTokens: opts.MaxTokens},
	}, &resp)
	if err != nil {
		return Completion{}, &ProviderError{Provider: p.name, Model: opts.Model, Err: err}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Completion{}, &ProviderError{Provider: p.name, Model: opts.Model, Err: fmt.Errorf("no candidates in response")}
	}
	return Completion{Text: resp.Candidates[0].Content.Parts[0].Text, TokensUsed: resp.UsageMetadata.TotalTokenCount}, nil
}

func (p *geminiProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	return calculateCost(p.cfg, inputTokens, outputTokens, model)
}

func calculateCost(cfg config.LLMProvider, inputTokens, outputTokens int64, model string) float64 {
	for _, mc := range cfg.Models {
		if mc.Name == model || mc.APIName == model {
			return float64(inputTokens)/1000*mc.CostPer1K + float64(outputTokens)/1000*mc.CostPer1KOutput
		}
	}
	return 0
}
