package llm

import (
	"context"
	"sync"
)

// MockResponse is a canned reply for the MockProvider.
type MockResponse struct {
	Text string
	Err  error
}

// MockProvider returns canned responses in FIFO order and records all
// requests. An empty queue yields ErrProviderUnavailable.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return "", &ErrProviderUnavailable{}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Text, nil
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
