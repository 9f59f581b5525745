package llm

import (
	"context"
	"sync"
)

// MockClient is a test double for the LLM Client interface.
// Replies are served from Responses in order, then Response forever.
type MockClient struct {
	Response  *Response
	Responses []*Response
	Err       error

	mu    sync.Mutex
	Calls []string // records prompts sent
}

// Complete records the call and returns the mock response.
func (m *MockClient) Complete(ctx context.Context, prompt string) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, prompt)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) > 0 {
		r := m.Responses[0]
		m.Responses = m.Responses[1:]
		return r, nil
	}
	return m.Response, nil
}

// CallCount returns the number of prompts received so far.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
