// Package completion defines the boundary to the hosted completion service
// used by the intent detector's low-confidence fallback. The contract is a
// single synchronous call returning free text; callers are responsible for
// extracting whatever structure they expect from it.
package completion

import (
	"context"
	"errors"
	"sync"
)

// ErrNotConfigured signals that no completion client is available (for
// example, a missing API key). Callers treat it as a first-class degrade
// branch, not an exceptional condition.
var ErrNotConfigured = errors.New("completion: client not configured")

// Request captures the normalized input of one completion call.
type Request struct {
	Model        string `json:"model"`
	MaxTokens    int64  `json:"max_tokens"`
	SystemPrompt string `json:"system_prompt"`
	UserMessage  string `json:"user_message"`
}

// Info contains metadata about a client implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "anthropic", "openai", "mock", etc.
}

// Client is the minimal interface required to drive a hosted completion.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)

	// Info returns information about the client implementation.
	Info() Info
}

// MockClient is a lightweight in-memory Client useful for tests. Responses
// are returned in order; once exhausted the last response repeats.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Requests  []Request
}

// Complete records the request and returns the next canned response.
func (m *MockClient) Complete(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}

// Info returns mock metadata.
func (m *MockClient) Info() Info {
	return Info{Name: "mock", Provider: "mock"}
}

// CallCount returns how many completions were requested.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
