package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one canned reply. Err, when set, is returned instead.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays canned responses in order and records requests.
// Content is validated against the request schema like a real provider.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []Request
}

// NewMockProvider queues the given responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Name() string    { return ProviderMock }
func (m *MockProvider) ModelID() string { return "mock" }

// Generate pops the next response. An empty queue is an
// ErrProviderUnavailable.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{}
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	return complete(req, next.Content, next.Usage, "mock", StopEnd)
}

// Push queues another response.
func (m *MockProvider) Push(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// Calls returns a copy of the recorded requests.
func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// CallCount is len(Calls()).
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
