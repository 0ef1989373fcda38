package store

import (
	"context"
	"strings"
)

// NewConversations creates a postgres-backed store when configured,
// otherwise in-memory.
func NewConversations(ctx context.Context, databaseURL string) (Conversations, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
