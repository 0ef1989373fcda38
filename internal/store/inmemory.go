package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/novahouse/renobot/internal/extract"
)

// InMemoryStore keeps conversations in-process for local/dev use.
type InMemoryStore struct {
	mu       sync.RWMutex
	turns    map[string][]Turn
	memories map[string]extract.Memory
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		turns:    make(map[string][]Turn),
		memories: make(map[string]extract.Memory),
	}
}

func (s *InMemoryStore) AppendTurn(_ context.Context, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)
	return nil
}

func (s *InMemoryStore) RecentTurns(_ context.Context, sessionID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[sessionID]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]Turn, 0, limit)
	for i := len(arr) - limit; i < len(arr); i++ {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *InMemoryStore) LoadMemory(_ context.Context, sessionID string) (extract.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mem, ok := s.memories[sessionID]
	if !ok {
		return extract.Memory{}, nil
	}
	return mem.Clone(), nil
}

func (s *InMemoryStore) ReplaceMemory(_ context.Context, sessionID string, mem extract.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories[sessionID] = mem.Clone()
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
