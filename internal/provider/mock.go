package provider

import (
	"context"
	"sync"
)

// Mock is a scriptable Client for tests. Responses are consumed in order;
// when the script runs out, the last entry repeats. An entry with a non-nil
// error simulates a provider failure.
type Mock struct {
	mu        sync.Mutex
	script    []MockReply
	requests  []*GenerateRequest
	healthErr error
}

// MockReply is a single scripted response.
type MockReply struct {
	Content string
	Err     error
}

// NewMock creates a mock provider with the given scripted replies.
func NewMock(replies ...MockReply) *Mock {
	return &Mock{script: replies}
}

// Generate implements Client.Generate
func (m *Mock) Generate(_ context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		return &GenerateResponse{Content: "", Model: "mock", Provider: "mock"}, nil
	}

	idx := len(m.requests) - 1
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	reply := m.script[idx]

	if reply.Err != nil {
		return nil, reply.Err
	}
	return &GenerateResponse{Content: reply.Content, Model: "mock", Provider: "mock"}, nil
}

// Health implements Client.Health
func (m *Mock) Health(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthErr
}

// SetHealthErr makes Health return the given error.
func (m *Mock) SetHealthErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthErr = err
}

// Close implements Client.Close
func (m *Mock) Close() error { return nil }

// Requests returns the requests recorded so far.
func (m *Mock) Requests() []*GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*GenerateRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns how many Generate calls the mock has seen.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
