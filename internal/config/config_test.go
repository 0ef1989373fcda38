package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.MetricsNamespace != "renobot" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "renobot")
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("LLMProvider = %q, want %q", cfg.LLMProvider, "openai")
	}
	if cfg.HistoryWindow != 15 {
		t.Fatalf("HistoryWindow = %d, want 15", cfg.HistoryWindow)
	}
	if cfg.BreakerFailureThreshold != 5 {
		t.Fatalf("BreakerFailureThreshold = %d, want 5", cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerRecoveryTimeout != 60*time.Second {
		t.Fatalf("BreakerRecoveryTimeout = %v, want 60s", cfg.BreakerRecoveryTimeout)
	}
	if cfg.RateLimitWindow != time.Hour {
		t.Fatalf("RateLimitWindow = %v, want 1h", cfg.RateLimitWindow)
	}
	if cfg.BlacklistThreshold != 10 {
		t.Fatalf("BlacklistThreshold = %d, want 10", cfg.BlacklistThreshold)
	}
	if cfg.BlacklistBlockDuration != time.Hour {
		t.Fatalf("BlacklistBlockDuration = %v, want 1h", cfg.BlacklistBlockDuration)
	}
}

func TestLoadUsesExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("LLM_PROVIDER", "groq")
	t.Setenv("LLM_API_KEY", "  gsk_testkey  ")
	t.Setenv("RATE_LIMIT_CHAT", "50")
	t.Setenv("BREAKER_RECOVERY_TIMEOUT", "30s")
	t.Setenv("HISTORY_WINDOW", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMProvider != "groq" {
		t.Fatalf("LLMProvider = %q, want %q", cfg.LLMProvider, "groq")
	}
	if cfg.LLMAPIKey != "gsk_testkey" {
		t.Fatalf("LLMAPIKey = %q, want trimmed value", cfg.LLMAPIKey)
	}
	if cfg.RateLimitChat != 50 {
		t.Fatalf("RateLimitChat = %d, want 50", cfg.RateLimitChat)
	}
	if cfg.BreakerRecoveryTimeout != 30*time.Second {
		t.Fatalf("BreakerRecoveryTimeout = %v, want 30s", cfg.BreakerRecoveryTimeout)
	}
	if cfg.HistoryWindow != 8 {
		t.Fatalf("HistoryWindow = %d, want 8", cfg.HistoryWindow)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"LLM_PROVIDER":              "bedrock",
		"HISTORY_WINDOW":            "0",
		"BREAKER_FAILURE_THRESHOLD": "-1",
		"RATE_LIMIT_CHAT":           "0",
		"BLACKLIST_THRESHOLD":       "0",
		"LLM_TIMEOUT":               "soon",
	}
	for key, value := range cases {
		setCoreEnvEmpty(t)
		t.Setenv(key, value)
		if _, err := Load(); err == nil {
			t.Fatalf("Load() with %s=%q did not fail", key, value)
		}
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"DATABASE_URL",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"LLM_PROVIDER",
		"LLM_API_KEY",
		"LLM_BASE_URL",
		"LLM_MODEL",
		"LLM_TIMEOUT",
		"HISTORY_WINDOW",
		"BREAKER_FAILURE_THRESHOLD",
		"BREAKER_RECOVERY_TIMEOUT",
		"RATE_LIMIT_WINDOW",
		"RATE_LIMIT_CHAT",
		"RATE_LIMIT_ADMIN",
		"BLACKLIST_THRESHOLD",
		"BLACKLIST_BLOCK_DURATION",
		"MONDAY_API_TOKEN",
		"MONDAY_BOARD_ID",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
