package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/parley-cli/parley/internal/config"
	"github.com/parley-cli/parley/internal/httpkit"
)

// maxCompletionTokens caps every completion request. The cap is part
// of the product behavior (short conversational answers), not a knob.
const maxCompletionTokens = 300

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIClient creates a client for cfg's endpoint. The API key is
// required and only ever enters through cfg; model and base URL fall
// back to the package defaults.
func NewOpenAIClient(cfg config.OpenAIConfig, logger *slog.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	model := cfg.Model
	if model == "" {
		model = config.DefaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	// Completions can take a while before headers arrive. Use a
	// transport with a generous response header timeout and no global
	// client timeout; ctx cancellation covers the rest.
	t := httpkit.NewTransport()
	t.ResponseHeaderTimeout = 120 * time.Second

	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		logger:  logger.With("provider", "openai"),
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(0),
			httpkit.WithTransport(t),
		),
	}, nil
}

// OpenAI request/response types

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// Model returns the model name requests are sent with.
func (c *OpenAIClient) Model() string { return c.model }

// Chat sends messages as a single chat-completion request and returns
// the first choice's content, trimmed. Structural problems in a
// success response wrap [ErrMalformed].
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	req := chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxCompletionTokens,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("sending chat request", "model", c.model, "messages", len(messages))
	c.logger.Log(ctx, config.LevelTrace, "request payload", "json", string(jsonData))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody := httpkit.ReadErrorBody(resp.Body, 4096)
		c.logger.Error("API error", "status", resp.StatusCode, "body", errBody)
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, errBody)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w (%v)", ErrMalformed, err)
	}

	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("response missing choices: %w", ErrMalformed)
	}

	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	c.logger.Debug("chat response",
		"finish_reason", decoded.Choices[0].FinishReason,
		"chars", len(text),
	)
	return text, nil
}
