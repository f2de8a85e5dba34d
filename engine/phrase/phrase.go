// Package phrase rewrites the engine's deterministic suggestion reasons
// into friendlier copy through any OpenAI-compatible chat API. It is a
// strictly optional decorator: every caller must treat a failed or empty
// rewrite as "keep the deterministic text", and the engine enforces its own
// timeout around each call.
package phrase

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/blockwise/engine/internal/strutil"
)

// Rewriter turns one short deterministic text into a rephrased one. A
// non-nil error means the caller keeps the original.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

const systemPrompt = "You rewrite one short scheduling note so it reads naturally " +
	"to the person planning their day. Keep every fact (times, categories, reasons) " +
	"unchanged, keep it to a single sentence, and reply with the rewritten sentence only."

// MaxOutputRunes caps the sanitized rewrite length.
const MaxOutputRunes = 200

// Config configures the rewriter client.
type Config struct {
	Provider    string // openai, deepseek, ollama, or any OpenAI-compatible endpoint
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default 120
	Temperature float32 // default 0.7
	Timeout     int     // HTTP client timeout, seconds (default 30)
}

// Service is the OpenAI-compatible Rewriter implementation.
type Service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
}

// NewService builds a rewriter from cfg. Known providers get their default
// base URL; anything else passes BaseURL through untouched.
func NewService(cfg Config) (*Service, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("phrase: model required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = newHTTPClient(cfg.Timeout)

	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	case "deepseek":
		clientConfig.BaseURL = orDefault(cfg.BaseURL, "https://api.deepseek.com")
	case "ollama":
		clientConfig.BaseURL = orDefault(cfg.BaseURL, "http://localhost:11434/v1")
	default:
		// Generic OpenAI-compatible endpoint.
		slog.Info("phrase: using generic OpenAI-compatible provider", "provider", cfg.Provider)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 120
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}

	return &Service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// Rewrite sends text through the chat API and returns the sanitized result.
// The numeric scheduling decision is already made by the time this runs;
// errors here only mean the deterministic text survives.
func (s *Service) Rewrite(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("phrase: empty input")
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("phrase: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("phrase: empty response")
	}

	out := Sanitize(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("phrase: rewrite sanitized to empty")
	}

	slog.Debug("phrase: rewrite completed",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Sanitize normalizes a model reply into one bounded line.
func Sanitize(s string) string {
	return strutil.Truncate(strutil.Flatten(s), MaxOutputRunes)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func newHTTPClient(timeoutSeconds int) *http.Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return &http.Client{
		Timeout: time.Duration(timeoutSeconds) * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        20,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
