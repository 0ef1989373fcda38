package llm

import "context"

// MockProvider returns scripted responses; tests also use the Err field to
// simulate a failing provider.
type MockProvider struct {
	Response string
	Err      error
	Calls    int
}

func (m *MockProvider) Complete(_ context.Context, _ []Message) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response == "" {
		return "Dziękuję za wiadomość! Chętnie opowiem o naszych pakietach wykończeniowych.", nil
	}
	return m.Response, nil
}
