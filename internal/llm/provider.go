// Package llm wraps an OpenAI-compatible chat-completion endpoint behind a
// small provider interface. Groq and other compatible backends are selected
// purely by base URL and model name.
package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the prompt sent to the provider.
type Message struct {
	Role    string
	Content string
}

// Provider issues a single chat completion. Implementations must honor the
// context deadline; the caller treats a timeout like any other provider
// failure.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
