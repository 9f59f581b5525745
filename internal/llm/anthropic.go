package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	anthropicAPI     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"

	// Analyses are short JSON objects.
	analysisMaxTokens = 512
)

// Anthropic calls the Anthropic Messages API directly.
type Anthropic struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewAnthropic creates a new Anthropic API client.
func NewAnthropic(apiKey, model string) *Anthropic {
	return &Anthropic{
		apiKey:   apiKey,
		model:    model,
		endpoint: anthropicAPI,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type anthropicReply struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends one user turn at temperature 0.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (*Response, error) {
	payload := map[string]any{
		"model":       a.model,
		"max_tokens":  analysisMaxTokens,
		"temperature": 0,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	header := http.Header{}
	header.Set("x-api-key", a.apiKey)
	header.Set("anthropic-version", anthropicVersion)

	var reply anthropicReply
	if err := postJSON(ctx, a.client, ProviderAnthropic, a.endpoint, header, payload, &reply); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range reply.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	tokens := reply.Usage.InputTokens + reply.Usage.OutputTokens
	log.Debug().Str("model", a.model).Int("tokens", tokens).Str("stop", reply.StopReason).Msg("anthropic completion")

	return &Response{
		Content:    text.String(),
		Provider:   ProviderAnthropic,
		TokensUsed: tokens,
	}, nil
}
