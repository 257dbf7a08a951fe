// Package anthropic provides an LLM service adapter using Anthropic API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
	"github.com/agora-labs/agora-cli/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = "https://api.anthropic.com"
	DefaultModel         = "claude-3-5-sonnet-latest"
	DefaultFallbackModel = "claude-3-5-haiku-latest"
	DefaultMaxTokens     = 900
	DefaultTemperature   = 0.2
	DefaultTimeout       = 120 * time.Second

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Models is the ordered list of models to try. The first entry is the
	// primary model; later entries are fallbacks used when a call fails
	// (default: claude-3-5-sonnet-latest, then claude-3-5-haiku-latest).
	Models []string

	// MaxTokens caps the completion length (default: 900).
	MaxTokens int

	// Temperature controls sampling randomness (default: 0.2).
	Temperature float64

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService generates completions using the Anthropic messages API.
// Calls are attempted against each configured model in order until one
// succeeds; a failing primary model degrades to the fallbacks rather
// than failing the whole request.
type LLMService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	models      []string
	maxTokens   int
	temperature float64

	mu        sync.Mutex
	lastModel string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{DefaultModel, DefaultFallbackModel}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		models:      cfg.Models,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		lastModel:   cfg.Models[0],
	}, nil
}

// Complete sends a system prompt and user message and returns the generated
// text. Each configured model is tried in order; the first success wins.
func (s *LLMService) Complete(ctx context.Context, system, user string) (string, error) {
	var lastErr error
	for i, model := range s.models {
		if i > 0 {
			logger.Warn("Model %s failed, falling back to %s", s.models[i-1], model)
		}
		text, err := s.sendMessages(ctx, model, system, user)
		if err == nil {
			s.mu.Lock()
			s.lastModel = model
			s.mu.Unlock()
			return text, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, lastErr)
}

// sendMessages performs a single /v1/messages call against one model.
func (s *LLMService) sendMessages(ctx context.Context, model, system, user string) (string, error) {
	reqBody := messagesRequest{
		Model: model,
		Messages: []messagesMessage{
			{Role: "user", Content: user},
		},
		MaxTokens: s.maxTokens,
		System:    system,
	}
	if s.temperature > 0 {
		reqBody.Temperature = s.temperature
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if msgResp.Error != nil {
		return "", fmt.Errorf("anthropic error: %s", msgResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(msgResp.Content) == 0 {
		return "", fmt.Errorf("anthropic: no response content returned")
	}

	// Concatenate all text content blocks
	var result strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}

	return strings.TrimSpace(result.String()), nil
}

// ModelName returns the model that served the most recent completion.
func (s *LLMService) ModelName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastModel
}

// Ping validates the service is reachable by checking the /v1/models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
