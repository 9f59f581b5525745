package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// Ollama calls a local Ollama instance.
type Ollama struct {
	url    string
	model  string
	client *http.Client
}

// NewOllama creates a new Ollama client.
func NewOllama(url, model string) *Ollama {
	return &Ollama{
		url:    strings.TrimRight(url, "/"),
		model:  model,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type ollamaReply struct {
	Response        string `json:"response"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Complete calls /api/generate in JSON mode: every sable prompt expects a
// JSON object back.
func (o *Ollama) Complete(ctx context.Context, prompt string) (*Response, error) {
	payload := map[string]any{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0,
			"num_predict": analysisMaxTokens,
		},
	}

	var reply ollamaReply
	if err := postJSON(ctx, o.client, ProviderOllama, o.url+"/api/generate", nil, payload, &reply); err != nil {
		return nil, err
	}

	tokens := reply.PromptEvalCount + reply.EvalCount
	log.Debug().Str("model", o.model).Int("tokens", tokens).Str("done", reply.DoneReason).Msg("ollama completion")

	return &Response{
		Content:    reply.Response,
		Provider:   ProviderOllama,
		TokensUsed: tokens,
	}, nil
}
