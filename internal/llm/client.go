package llm

import (
	"context"
	"fmt"

	"github.com/lazypower/sable/internal/config"
)

// Provider names accepted in llm.provider.
const (
	ProviderClaudeCLI = "claude-cli"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Client is the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (*Response, error)
}

// Response holds the result of an LLM completion.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// NewClient creates an LLM client based on the config provider setting.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderClaudeCLI:
		model := cfg.Model
		if model == "" {
			model = "haiku"
		}
		return NewClaudeCLI(model), nil
	case ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or config")
		}
		model := cfg.Model
		if model == "" || model == "haiku" {
			model = "claude-haiku-4-5-20251001"
		}
		return NewAnthropic(cfg.AnthropicKey, model), nil
	case ProviderOllama:
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := cfg.OllamaModel
		if model == "" {
			model = "llama3.2"
		}
		return NewOllama(url, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// NewClassifier builds the text-emotion classifier described by cfg.
// It returns nil, nil when classification is disabled.
func NewClassifier(cfg config.Config) (Classifier, error) {
	if !cfg.Classifier.Enabled {
		return nil, nil
	}
	client, err := NewClient(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return NewEmotionClassifier(client, cfg.Classifier.Timeout), nil
}
