package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/sable/internal/affect"
)

func TestClassifyParsesReply(t *testing.T) {
	mock := &MockClient{Response: &Response{Content: `Sure, here you go:
{"emotions": {"Fear": 0.7, "curiosity": 1.4, "boredom": 0.9, "joy": 0},
 "valence": -2, "arousal": 0.8, "reasoning": " worried but intrigued "}
Hope that helps.`}}

	c := NewEmotionClassifier(mock, time.Second)
	a, err := c.Classify(context.Background(), "the deploy keeps failing and I don't know why")
	require.NoError(t, err)

	assert.Equal(t, affect.Impact{affect.Fear: 0.7, affect.Curiosity: 1.0}, a.Emotions, "unknown and zero kinds dropped, values clamped")
	assert.Equal(t, -1.0, a.Valence)
	assert.Equal(t, 0.8, a.Arousal)
	assert.Equal(t, "worried but intrigued", a.Reasoning)
	assert.InDelta(t, 1.7, a.Total(), 1e-9)

	require.Len(t, mock.Calls, 1)
	assert.True(t, strings.HasPrefix(mock.Calls[0], InternalSentinel))
	assert.Contains(t, mock.Calls[0], "the deploy keeps failing")
}

func TestClassifyMissingFieldsDefaultNeutral(t *testing.T) {
	mock := &MockClient{Response: &Response{Content: `{"emotions": {"joy": 0.4}}`}}
	a, err := NewEmotionClassifier(mock, 0).Classify(context.Background(), "nice")
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.Valence)
	assert.Equal(t, 0.5, a.Arousal)
}

func TestClassifyEmptyTextSkipsModel(t *testing.T) {
	mock := &MockClient{}
	a, err := NewEmotionClassifier(mock, time.Second).Classify(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, Neutral(), a)
	assert.Empty(t, mock.Calls)
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		reason string
	}{
		{"client error", &MockClient{Err: errors.New("exit status 1")}, "error"},
		{"no json", &MockClient{Response: &Response{Content: "I cannot help with that."}}, "unparsable"},
		{"broken json", &MockClient{Response: &Response{Content: `{"emotions": {"joy": }`}}, "unparsable"},
		{"nil response", &MockClient{}, "unparsable"},
		{"timeout", slowClient{}, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEmotionClassifier(tt.client, 20*time.Millisecond)
			a, err := c.Classify(context.Background(), "some text")
			require.Error(t, err)
			assert.Nil(t, a)
			assert.Equal(t, tt.reason, FallbackReason(err))
		})
	}
}

func TestClassifierFunc(t *testing.T) {
	var f Classifier = ClassifierFunc(func(ctx context.Context, text string) (*Analysis, error) {
		return &Analysis{Emotions: affect.Impact{affect.Joy: 0.5}, Valence: 0.5, Arousal: 0.5}, nil
	})
	a, err := f.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 0.5, a.Emotions[affect.Joy])
}

func TestEmotionAnalysisPromptListsCatalog(t *testing.T) {
	p := EmotionAnalysisPrompt("hello")
	for _, k := range affect.Kinds() {
		assert.Contains(t, p, string(k))
	}
	assert.Contains(t, p, "- Primary: ")
}

type slowClient struct{}

func (slowClient) Complete(ctx context.Context, prompt string) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
