package chat

import (
	"context"

	"github.com/novahouse/renobot/internal/knowledge"
)

// FAQStrategy answers from the static knowledge base. Deterministic and
// free, so it always runs before the LLM.
type FAQStrategy struct{}

func NewFAQStrategy() *FAQStrategy {
	return &FAQStrategy{}
}

func (s *FAQStrategy) Name() string { return "faq" }

func (s *FAQStrategy) Process(_ context.Context, conv *Conversation) error {
	if conv.Answered() {
		return nil
	}
	if entry, ok := knowledge.Match(conv.UserMessage); ok {
		conv.BotResponse = entry.Answer
	}
	return nil
}
