package store

import (
	"context"
	"time"

	"github.com/novahouse/renobot/internal/extract"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Turn is a single user or bot message in a conversation.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversations persists turns and extracted memory per session. Deletion is
// a data-protection concern handled outside this service, so the interface
// has none.
type Conversations interface {
	AppendTurn(ctx context.Context, turn Turn) error
	// RecentTurns returns up to limit turns in chronological order.
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error)
	LoadMemory(ctx context.Context, sessionID string) (extract.Memory, error)
	ReplaceMemory(ctx context.Context, sessionID string, mem extract.Memory) error
	Close() error
}
