package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Known OpenAI-compatible base URLs by provider name.
const groqBaseURL = "https://api.groq.com/openai/v1"

type OpenAIConfig struct {
	Provider string // "openai" or "groq"
	APIKey   string
	BaseURL  string // overrides the provider default when set
	Model    string
	Timeout  time.Duration
}

// OpenAIProvider talks to any OpenAI-compatible chat-completion API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	switch {
	case strings.TrimSpace(cfg.BaseURL) != "":
		clientCfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	case strings.EqualFold(cfg.Provider, "groq"):
		clientCfg.BaseURL = groqBaseURL
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		return "", fmt.Errorf("llm: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: provider returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
