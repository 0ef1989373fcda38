package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/novahouse/renobot/internal/crm"
	"github.com/novahouse/renobot/internal/extract"
	"github.com/novahouse/renobot/internal/observability"
	"github.com/novahouse/renobot/internal/session"
	"github.com/novahouse/renobot/internal/store"
)

// Service processes chat turns end to end: load state, extract facts, run
// the strategy chain, persist, and hand off qualified leads. One turn per
// session at a time; the extractor's last-stated-wins semantics depend on
// arrival order.
type Service struct {
	router        *Router
	conversations store.Conversations
	leads         crm.LeadSink
	metrics       *observability.Metrics
	sessions      *session.Manager
	historyWindow int
}

func NewService(router *Router, conversations store.Conversations, leads crm.LeadSink, metrics *observability.Metrics, sessions *session.Manager, historyWindow int) *Service {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	if sessions == nil {
		sessions = session.NewManager(0)
	}
	return &Service{
		router:        router,
		conversations: conversations,
		leads:         leads,
		metrics:       metrics,
		sessions:      sessions,
		historyWindow: historyWindow,
	}
}

// NewSession mints a session id; the conversation itself materializes on the
// first message.
func (s *Service) NewSession() string {
	return s.sessions.Create().ID
}

// Reply is what the HTTP layer returns for one processed turn.
type Reply struct {
	SessionID string         `json:"session_id"`
	Response  string         `json:"response"`
	Strategy  string         `json:"strategy"`
	Memory    extract.Memory `json:"memory"`
}

// ProcessMessage runs one user message through the pipeline. It never
// returns a user-visible error for provider or filter trouble; the returned
// error only covers storage failures the HTTP layer should 500 on.
func (s *Service) ProcessMessage(ctx context.Context, sessionID, clientIP, message string) (Reply, error) {
	if sessionID == "" {
		return Reply{}, fmt.Errorf("chat: session id required")
	}

	sess := s.sessions.GetOrCreate(sessionID)
	sess.LockTurn()
	defer sess.UnlockTurn()

	memory, err := s.conversations.LoadMemory(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("chat: load memory: %w", err)
	}
	history, err := s.conversations.RecentTurns(ctx, sessionID, s.historyWindow)
	if err != nil {
		return Reply{}, fmt.Errorf("chat: load history: %w", err)
	}

	memory = extract.Apply(memory, message)
	if err := s.conversations.ReplaceMemory(ctx, sessionID, memory); err != nil {
		return Reply{}, fmt.Errorf("chat: save memory: %w", err)
	}
	if err := s.conversations.AppendTurn(ctx, store.Turn{
		SessionID: sessionID,
		Sender:    store.SenderUser,
		Text:      message,
	}); err != nil {
		return Reply{}, fmt.Errorf("chat: save user turn: %w", err)
	}

	conv := &Conversation{
		SessionID:   sessionID,
		ClientIP:    clientIP,
		UserMessage: message,
		Memory:      memory,
		History:     history,
	}
	s.router.Process(ctx, conv)

	status := "success"
	if !conv.Answered() {
		conv.BotResponse = FallbackProviderDown
		conv.Strategy = "fallback"
		status = "fallback"
	}

	if err := s.conversations.AppendTurn(ctx, store.Turn{
		SessionID: sessionID,
		Sender:    store.SenderBot,
		Text:      conv.BotResponse,
	}); err != nil {
		// The user already has their answer; losing one bot turn is worth a
		// log line, not a 500.
		log.Printf("chat: save bot turn failed for session %s: %v", sessionID, err)
	}

	s.metrics.Conversations.WithLabelValues(status).Inc()
	s.metrics.StrategyServed.WithLabelValues(conv.Strategy).Inc()

	s.maybePushLead(ctx, sess, memory)

	return Reply{
		SessionID: sessionID,
		Response:  conv.BotResponse,
		Strategy:  conv.Strategy,
		Memory:    memory,
	}, nil
}

// Memory exposes the current extracted facts for a session.
func (s *Service) Memory(ctx context.Context, sessionID string) (extract.Memory, error) {
	return s.conversations.LoadMemory(ctx, sessionID)
}

// Sessions exposes the session table so callers can start the janitor and
// hook expiry metrics.
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

// maybePushLead runs under the session's turn lock, so the LeadPushed flag
// needs no extra synchronization.
func (s *Service) maybePushLead(ctx context.Context, sess *session.Session, memory extract.Memory) {
	if s.leads == nil || sess.LeadPushed || !crm.Qualified(memory) {
		return
	}
	sess.LeadPushed = true

	lead := crm.LeadFromMemory(sess.ID, memory)
	itemID, err := s.leads.CreateLead(ctx, lead)
	if err != nil {
		// Logged, not retried; the next qualifying turn will not re-push
		// either, sales reconciliation catches stragglers.
		log.Printf("chat: lead push failed for session %s: %v", sess.ID, err)
		return
	}
	log.Printf("chat: lead pushed for session %s as item %s (score %d)", sess.ID, itemID, lead.Score)
}
