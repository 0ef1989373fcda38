package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type messageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// wsThrottle is the frame sent when a websocket message is rate limited.
type wsThrottle struct {
	Error             string `json:"error"`
	Code              string `json:"code"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusCreated, map[string]string{
		"session_id": s.chat.NewSession(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			s.respondError(w, http.StatusBadRequest, "invalid_request", "request body is required")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		s.respondError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}

	reply, err := s.chat.ProcessMessage(r.Context(), req.SessionID, clientIP(r), req.Message)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "internal_error", "could not process message")
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "missing_session_id", "missing session id")
		return
	}
	mem, err := s.chat.Memory(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "internal_error", "could not load memory")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"memory":     mem,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// handleChatWS runs a chat turn per inbound frame. The frame format matches
// the REST message endpoint minus the session id, which is fixed at upgrade
// time so one socket maps to one conversation.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = s.chat.NewSession()
	}
	ip := clientIP(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(map[string]string{"session_id": sessionID}); err != nil {
		return
	}

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}

		var req messageRequest
		if err := json.Unmarshal(data, &req); err != nil || strings.TrimSpace(req.Message) == "" {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(errorResponse{Error: "message is required", Code: "invalid_message"}); err != nil {
				return
			}
			continue
		}

		// The upgrade-time guard only covered the handshake; every frame is
		// a chain run and pays the same toll as a REST message.
		if s.blacklist != nil && s.blacklist.IsBlocked(r.Context(), ip) {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = conn.WriteJSON(errorResponse{Error: "too many violations, try again later", Code: "ip_blocked"})
			return
		}
		if s.limiter != nil {
			res := s.limiter.Allow(r.Context(), ip, ClassChat)
			if !res.Allowed {
				s.metrics.RateLimitHits.Inc()
				if s.blacklist != nil {
					s.blacklist.RecordViolation(r.Context(), ip)
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(wsThrottle{
					Error:             "request quota exceeded",
					Code:              "rate_limited",
					RetryAfterSeconds: retryAfterSeconds(res),
				}); err != nil {
					return
				}
				continue
			}
		}

		reply, err := s.chat.ProcessMessage(r.Context(), sessionID, ip, req.Message)
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err != nil {
			if err := conn.WriteJSON(errorResponse{Error: "could not process message", Code: "internal_error"}); err != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}
