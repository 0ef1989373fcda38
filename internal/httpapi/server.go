package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/novahouse/renobot/internal/chat"
	"github.com/novahouse/renobot/internal/config"
	"github.com/novahouse/renobot/internal/observability"
	"github.com/novahouse/renobot/internal/ratelimit"
)

// Endpoint classes share rate-limit budgets across routes.
const (
	ClassChat  = "chat"
	ClassAdmin = "admin"
)

type Server struct {
	cfg       config.Config
	chat      *chat.Service
	limiter   *ratelimit.Limiter
	blacklist *ratelimit.Blacklist
	metrics   *observability.Metrics
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, chatService *chat.Service, limiter *ratelimit.Limiter, blacklist *ratelimit.Blacklist, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:       cfg,
		chat:      chatService,
		limiter:   limiter,
		blacklist: blacklist,
		metrics:   metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other sites cannot drive a visitor's chat
				// session if the widget is embedded beyond our own pages.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/sessions", s.guard(ClassChat, s.handleCreateSession))
	r.Post("/v1/chat/message", s.guard(ClassChat, s.handleMessage))
	r.Get("/v1/chat/ws", s.guard(ClassChat, s.handleChatWS))
	r.Get("/v1/chat/{id}/memory", s.guard(ClassAdmin, s.handleMemory))
	r.Get("/v1/stats", s.guard(ClassAdmin, s.handleStats))

	return r
}

// guard rejects blacklisted IPs and enforces the per-class rate limit before
// the handler runs. A rate-limit breach counts as a blacklist violation.
func (s *Server) guard(class string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if s.blacklist != nil && s.blacklist.IsBlocked(r.Context(), ip) {
			s.respondError(w, http.StatusForbidden, "ip_blocked", "too many violations, try again later")
			return
		}
		if s.limiter != nil {
			res := s.limiter.Allow(r.Context(), ip, class)
			if !res.Allowed {
				s.metrics.RateLimitHits.Inc()
				if s.blacklist != nil {
					s.blacklist.RecordViolation(r.Context(), ip)
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res)))
				s.respondError(w, http.StatusTooManyRequests, "rate_limited", "request quota exceeded")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func retryAfterSeconds(res ratelimit.Result) int {
	secs := int(res.RetryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// clientIP trusts the first X-Forwarded-For hop when present; the service is
// expected to run behind a reverse proxy in production.
func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	if s.metrics != nil {
		switch {
		case status >= 500:
			s.metrics.HTTPErrors.WithLabelValues("5xx").Inc()
		case status >= 400:
			s.metrics.HTTPErrors.WithLabelValues("4xx").Inc()
		}
	}
	s.respondJSON(w, status, errorResponse{Error: message, Code: code})
}
