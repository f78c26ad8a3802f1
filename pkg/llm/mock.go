package llm

import "context"

// MockClient is a scripted Client for tests. Responses are returned in
// order (the last one repeats once exhausted); every request is recorded
// for assertions.
type MockClient struct {
	Responses    []string
	Err          error
	CompleteFunc func(ctx context.Context, req Request) (string, error)

	Requests []Request
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	m.Requests = append(m.Requests, req)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}

	idx := len(m.Requests) - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}

var _ Client = (*MockClient)(nil)
