package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// ErrUnparsable is returned when a model reply holds no usable analysis.
var ErrUnparsable = errors.New("unparsable classifier output")

// Analysis is the emotional reading of one text.
type Analysis struct {
	Emotions  affect.Impact `json:"emotions"`
	Valence   float64       `json:"valence"`
	Arousal   float64       `json:"arousal"`
	Reasoning string        `json:"reasoning,omitempty"`
}

// Total sums the detected intensities.
func (a *Analysis) Total() float64 {
	return a.Emotions.Total()
}

// Neutral is the analysis substituted when classification fails.
func Neutral() *Analysis {
	return &Analysis{Emotions: affect.Impact{}, Valence: 0, Arousal: 0.5}
}

// Classifier turns text into an emotion analysis.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Analysis, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) (*Analysis, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (*Analysis, error) {
	return f(ctx, text)
}

// EmotionClassifier classifies text by prompting an LLM client.
type EmotionClassifier struct {
	client  Client
	timeout time.Duration
}

// NewEmotionClassifier wraps client. A non-positive timeout means 10s.
func NewEmotionClassifier(client Client, timeout time.Duration) *EmotionClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmotionClassifier{client: client, timeout: timeout}
}

// Classify prompts the model and parses its JSON reply.
func (c *EmotionClassifier) Classify(ctx context.Context, text string) (*Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Neutral(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Complete(ctx, EmotionAnalysisPrompt(text))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("classify: %w", ctx.Err())
		}
		return nil, fmt.Errorf("classify: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("classify: empty response: %w", ErrUnparsable)
	}
	return parseAnalysis(resp.Content)
}

// parseAnalysis extracts the JSON object between the first '{' and the last
// '}', clamps values into range and drops unknown kinds.
func parseAnalysis(content string) (*Analysis, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply: %w", ErrUnparsable)
	}

	var raw struct {
		Emotions  map[string]float64 `json:"emotions"`
		Valence   *float64           `json:"valence"`
		Arousal   *float64           `json:"arousal"`
		Reasoning string             `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode analysis: %v: %w", err, ErrUnparsable)
	}

	a := Neutral()
	a.Reasoning = strings.TrimSpace(raw.Reasoning)
	if raw.Valence != nil && !math.IsNaN(*raw.Valence) {
		a.Valence = affect.ClampSigned(*raw.Valence)
	}
	if raw.Arousal != nil && !math.IsNaN(*raw.Arousal) {
		a.Arousal = affect.ClampUnit(*raw.Arousal)
	}
	for name, v := range raw.Emotions {
		k, ok := affect.ParseKind(strings.ToLower(strings.TrimSpace(name)))
		if !ok || math.IsNaN(v) {
			continue
		}
		if v = affect.ClampUnit(v); v > 0 {
			a.Emotions[k] = math.Max(a.Emotions[k], v)
		}
	}
	return a, nil
}

// FallbackReason classifies a Classify error for logs and metrics.
func FallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrUnparsable):
		return "unparsable"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case Unavailable(err):
		return "unavailable"
	}
	return "error"
}
