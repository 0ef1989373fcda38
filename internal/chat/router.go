package chat

import (
	"context"
	"log"
)

// Strategy is one responder in the chain. Process may set
// conv.BotResponse or leave it for the next strategy; it must not panic and
// should keep its own failures to itself.
type Strategy interface {
	Name() string
	Process(ctx context.Context, conv *Conversation) error
}

// Router walks an ordered strategy list and short-circuits at the first
// populated response. Order is fixed at construction: cheap deterministic
// strategies first, the LLM last.
type Router struct {
	strategies []Strategy
}

func NewRouter(strategies ...Strategy) *Router {
	return &Router{strategies: strategies}
}

// Process never returns an error to the HTTP layer; a strategy error is
// logged and the chain moves on.
func (r *Router) Process(ctx context.Context, conv *Conversation) {
	for _, s := range r.strategies {
		if conv.Answered() {
			return
		}
		if err := s.Process(ctx, conv); err != nil {
			log.Printf("chat: strategy %s failed: %v", s.Name(), err)
		}
		if conv.Answered() && conv.Strategy == "" {
			conv.Strategy = s.Name()
		}
	}
}
