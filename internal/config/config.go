package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chatbot service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LLMProvider string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMTimeout  time.Duration

	HistoryWindow int

	BreakerFailureThreshold int
	BreakerRecoveryTimeout  time.Duration

	RateLimitWindow time.Duration
	RateLimitChat   int64
	RateLimitAdmin  int64

	BlacklistThreshold     int64
	BlacklistBlockDuration time.Duration

	MondayAPIToken string
	MondayBoardID  string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "renobot"),
		AllowAnyOrigin:   false,
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		RedisAddr:        stringsTrimSpace("REDIS_ADDR"),
		RedisPassword:    stringsTrimSpace("REDIS_PASSWORD"),
		LLMProvider:      envOrDefault("LLM_PROVIDER", "openai"),
		LLMAPIKey:        stringsTrimSpace("LLM_API_KEY"),
		LLMBaseURL:       stringsTrimSpace("LLM_BASE_URL"),
		// Default to a cheap fast model; production can pin a larger one.
		LLMModel:                 envOrDefault("LLM_MODEL", "gpt-4o-mini"),
		MondayAPIToken:           stringsTrimSpace("MONDAY_API_TOKEN"),
		MondayBoardID:            stringsTrimSpace("MONDAY_BOARD_ID"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		LLMTimeout:               30 * time.Second,
		HistoryWindow:            15,
		BreakerFailureThreshold:  5,
		BreakerRecoveryTimeout:   60 * time.Second,
		RateLimitWindow:          time.Hour,
		RateLimitChat:            300,
		RateLimitAdmin:           60,
		BlacklistThreshold:       10,
		BlacklistBlockDuration:   time.Hour,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BreakerRecoveryTimeout, err = durationFromEnv("BREAKER_RECOVERY_TIMEOUT", cfg.BreakerRecoveryTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitWindow, err = durationFromEnv("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.BlacklistBlockDuration, err = durationFromEnv("BLACKLIST_BLOCK_DURATION", cfg.BlacklistBlockDuration)
	if err != nil {
		return Config{}, err
	}
	cfg.RedisDB, err = intFromEnv("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindow, err = intFromEnv("HISTORY_WINDOW", cfg.HistoryWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.BreakerFailureThreshold, err = intFromEnv("BREAKER_FAILURE_THRESHOLD", cfg.BreakerFailureThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitChat, err = int64FromEnv("RATE_LIMIT_CHAT", cfg.RateLimitChat)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitAdmin, err = int64FromEnv("RATE_LIMIT_ADMIN", cfg.RateLimitAdmin)
	if err != nil {
		return Config{}, err
	}
	cfg.BlacklistThreshold, err = int64FromEnv("BLACKLIST_THRESHOLD", cfg.BlacklistThreshold)
	if err != nil {
		return Config{}, err
	}

	switch strings.ToLower(cfg.LLMProvider) {
	case "openai", "groq":
	default:
		return Config{}, fmt.Errorf("LLM_PROVIDER must be openai or groq, got %q", cfg.LLMProvider)
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.HistoryWindow <= 0 {
		return Config{}, fmt.Errorf("HISTORY_WINDOW must be positive")
	}
	if cfg.BreakerFailureThreshold <= 0 {
		return Config{}, fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be positive")
	}
	if cfg.RateLimitWindow < time.Second {
		return Config{}, fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	if cfg.RateLimitChat <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_CHAT must be positive")
	}
	if cfg.RateLimitAdmin <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_ADMIN must be positive")
	}
	if cfg.BlacklistThreshold <= 0 {
		return Config{}, fmt.Errorf("BLACKLIST_THRESHOLD must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func int64FromEnv(key string, fallback int64) (int64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
