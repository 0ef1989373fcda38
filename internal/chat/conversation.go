// Package chat runs the conversation pipeline: per-message fact extraction,
// the strategy chain that decides FAQ vs LLM, and the defensive wrapping that
// keeps provider failures away from users.
package chat

import (
	"github.com/novahouse/renobot/internal/extract"
	"github.com/novahouse/renobot/internal/store"
)

// DefaultHistoryWindow caps how many past turns feed the LLM prompt. Older
// turns are dropped, not summarized.
const DefaultHistoryWindow = 15

// Conversation carries one turn through the strategy chain. Strategies may
// set BotResponse; the first to do so wins.
type Conversation struct {
	SessionID   string
	ClientIP    string
	UserMessage string
	BotResponse string
	// Strategy records which strategy produced the response, for metrics.
	Strategy string

	Memory  extract.Memory
	History []store.Turn
}

// Answered reports whether some strategy already produced a response.
func (c *Conversation) Answered() bool {
	return c.BotResponse != ""
}
