package llm

import (
	"context"
	"sync"
)

// MockResult is a canned result for the MockBackend.
type MockResult struct {
	Text string
	Err  error
}

// MockCall records one GenerateText invocation.
type MockCall struct {
	Model  string
	APIKey string
	Req    Request
}

// MockBackend is a deterministic Backend for testing. It returns canned
// results in FIFO order and records every call.
type MockBackend struct {
	mu      sync.Mutex
	results []MockResult
	Calls   []MockCall
}

// NewMockBackend creates a MockBackend with the given canned results.
func NewMockBackend(results ...MockResult) *MockBackend {
	return &MockBackend{results: results}
}

// GenerateText returns the next canned result. With an empty queue it
// returns empty text, which the Invoker treats as a fallback trigger.
func (m *MockBackend) GenerateText(_ context.Context, modelID, apiKey string, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Model: modelID, APIKey: apiKey, Req: req})

	if len(m.results) == 0 {
		return "", nil
	}
	res := m.results[0]
	m.results = m.results[1:]
	return res.Text, res.Err
}

// CallCount returns the number of GenerateText calls made.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Models returns the model identifier of each recorded call, in order.
func (m *MockBackend) Models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		out[i] = c.Model
	}
	return out
}
