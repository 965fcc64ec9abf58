package explain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Runtime sends one chat completion to a model backend.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by ai_provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderDashScope  = "dashscope"
	ProviderOllama     = "ollama"
	ProviderLocal      = "local"
)

var defaultBaseURLs = map[string]string{
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderDashScope:  "https://dashscope.aliyuncs.com/compatible-mode/v1",
}

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	Provider string

	// Common
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// OpenAI-compatible providers
	APIKey  string
	BaseURL string
	// Ollama
	Host string
}

// NewRuntime builds the Runtime for cfg.Provider. An empty BaseURL selects
// the provider's public endpoint.
func NewRuntime(cfg RuntimeConfig) (Runtime, error) {
	p := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch p {
	case ProviderOllama, ProviderLocal:
		return NewOllamaClient(cfg.Host, cfg.HTTPTimeout, cfg.RetryMax, cfg.BaseDelay, cfg.MaxDelay), nil
	case "":
		p = ProviderOpenRouter
	}
	base, ok := defaultBaseURLs[p]
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	return NewClientWithBaseURL(cfg.APIKey, cfg.HTTPTimeout, cfg.RetryMax, cfg.BaseDelay, cfg.MaxDelay, base), nil
}
