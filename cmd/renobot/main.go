package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/novahouse/renobot/internal/chat"
	"github.com/novahouse/renobot/internal/config"
	"github.com/novahouse/renobot/internal/crm"
	"github.com/novahouse/renobot/internal/httpapi"
	"github.com/novahouse/renobot/internal/llm"
	"github.com/novahouse/renobot/internal/observability"
	"github.com/novahouse/renobot/internal/ratelimit"
	"github.com/novahouse/renobot/internal/reliability"
	"github.com/novahouse/renobot/internal/session"
	"github.com/novahouse/renobot/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	conversations, err := store.NewConversations(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("conversation store init failed: %v", err)
	}
	defer conversations.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("conversation store: in-memory (DATABASE_URL not set)")
	} else {
		log.Printf("conversation store: postgres")
	}

	var rlStore ratelimit.Store
	if cfg.RedisAddr != "" {
		redisStore := ratelimit.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisStore.Close()
		rlStore = redisStore
		log.Printf("rate limit store: redis at %s", cfg.RedisAddr)
	} else {
		rlStore = ratelimit.NewMemoryStore()
		log.Printf("rate limit store: in-memory (REDIS_ADDR not set)")
	}
	limiter := ratelimit.NewLimiter(rlStore, cfg.RateLimitWindow, map[string]int64{
		httpapi.ClassChat:  cfg.RateLimitChat,
		httpapi.ClassAdmin: cfg.RateLimitAdmin,
	}, cfg.RateLimitChat)
	blacklist := ratelimit.NewBlacklist(rlStore, cfg.BlacklistThreshold, cfg.BlacklistBlockDuration)

	var provider llm.Provider
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		provider = &llm.MockProvider{}
		log.Printf("llm provider: mock (LLM_API_KEY not set)")
	} else {
		p, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
			Provider: cfg.LLMProvider,
			APIKey:   cfg.LLMAPIKey,
			BaseURL:  cfg.LLMBaseURL,
			Model:    cfg.LLMModel,
			Timeout:  cfg.LLMTimeout,
		})
		if err != nil {
			log.Fatalf("llm provider init failed: %v", err)
		}
		provider = p
		log.Printf("llm provider: %s (%s)", cfg.LLMProvider, cfg.LLMModel)
	}

	breaker := reliability.NewBreaker(reliability.BreakerConfig{
		FailureThreshold: cfg.BreakerFailureThreshold,
		RecoveryTimeout:  cfg.BreakerRecoveryTimeout,
		Matches:          reliability.IsProviderFailure,
	})

	var leads crm.LeadSink
	if cfg.MondayAPIToken != "" && cfg.MondayBoardID != "" {
		leads = crm.NewMondayClient(cfg.MondayAPIToken, cfg.MondayBoardID)
		log.Printf("lead sink: monday board %s", cfg.MondayBoardID)
	} else {
		log.Printf("lead sink: disabled (MONDAY_API_TOKEN or MONDAY_BOARD_ID not set)")
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)

	router := chat.NewRouter(
		chat.NewFAQStrategy(),
		chat.NewLLMStrategy(provider, breaker, metrics, cfg.HistoryWindow),
	)
	service := chat.NewService(router, conversations, leads, metrics, sessions, cfg.HistoryWindow)

	api := httpapi.New(cfg, service, limiter, blacklist, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, time.Minute)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
