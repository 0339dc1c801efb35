// Package suggest asks an OpenAI-compatible provider (OpenRouter or Groq)
// for short comment suggestions.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
	"autolike/internal/infrastructure/prompts"
)

var _ ports.CommentSuggester = (*Client)(nil)

var (
	ErrMissingAPIKey       = errors.New("suggest: missing API key")
	ErrInsufficientContext = errors.New("suggest: video title and channel name are required")
	ErrEmptyResponse       = errors.New("suggest: empty response")
)

const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	GroqBaseURL       = "https://api.groq.com/openai/v1"

	maxTokens      = 700
	requestTimeout = 30 * time.Second
	referer        = "https://github.com/autolike-pro"
	appTitle       = "YouTube AutoLike Pro"
)

type Client struct {
	client *openai.Client
	cfg    entity.AIConfig
	logger ports.Logger
}

type Config struct {
	AI      entity.AIConfig
	BaseURL string
	Logger  ports.Logger
	// HTTPClient replaces the default transport; tests point it at httptest.
	HTTPClient *http.Client
}

// BaseURLFor returns the endpoint of provider.
func BaseURLFor(provider entity.AIProvider) string {
	if provider == entity.ProviderGroq {
		return GroqBaseURL
	}
	return OpenRouterBaseURL
}

type loggingTransport struct {
	base     http.RoundTripper
	logger   ports.Logger
	provider entity.AIProvider
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.provider == entity.ProviderOpenRouter {
		req = req.Clone(req.Context())
		req.Header.Set("HTTP-Referer", referer)
		req.Header.Set("X-Title", appTitle)
	}

	if req.Body != nil {
		bodyBytes, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var requestData map[string]any
		_ = json.Unmarshal(bodyBytes, &requestData)
		t.logger.Debug("suggest: HTTP request",
			"method", req.Method,
			"url", req.URL.String(),
			"model", requestData["model"],
		)
	}

	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		t.logger.Debug("suggest: HTTP response", "status", resp.Status, "statusCode", resp.StatusCode)
	}
	return resp, err
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AI.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Logger == nil {
		cfg.Logger = ports.NopLogger()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURLFor(cfg.AI.Provider)
	}
	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}

	config := openai.DefaultConfig(cfg.AI.APIKey)
	config.BaseURL = cfg.BaseURL
	config.HTTPClient = &http.Client{
		Timeout:   requestTimeout,
		Transport: &loggingTransport{base: base, logger: cfg.Logger, provider: cfg.AI.Provider},
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg.AI,
		logger: cfg.Logger,
	}, nil
}

// Suggest returns at most MaxSuggestions comment variants.
func (c *Client) Suggest(ctx context.Context, req entity.CommentRequest) ([]string, error) {
	if strings.TrimSpace(req.VideoTitle) == "" || strings.TrimSpace(req.ChannelName) == "" {
		return nil, ErrInsufficientContext
	}

	user, err := prompts.CommentUserPrompt(req, c.limit())
	if err != nil {
		return nil, err
	}
	messages := convertMessages([]entity.Message{
		{Role: entity.RoleSystem, Content: c.cfg.SystemPrompt},
		{Role: entity.RoleUser, Content: user},
	})

	c.logger.Debug("suggest: requesting comments", "model", c.cfg.Model, "provider", c.cfg.Provider)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, describe(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return c.parse(resp.Choices[0].Message.Content), nil
}

func (c *Client) limit() int {
	if c.cfg.MaxSuggestions <= 0 || c.cfg.MaxSuggestions > 5 {
		return 5
	}
	return c.cfg.MaxSuggestions
}

var (
	fenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// parse reads a JSON array of strings, possibly wrapped in a Markdown fence.
// Anything else is returned whole as a single suggestion.
func (c *Client) parse(raw string) []string {
	cleaned := strings.TrimSpace(raw)
	cleaned = fenceOpen.ReplaceAllString(cleaned, "")
	cleaned = fenceClose.ReplaceAllString(cleaned, "")

	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		c.logger.Warn("suggest: reply is not a JSON array, using raw text", "error", err)
		return []string{raw}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			s = fmt.Sprint(it)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == c.limit() {
			break
		}
	}
	return out
}

// describe maps provider status codes to actionable messages.
func describe(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("suggest: invalid API key: %w", err)
		case http.StatusPaymentRequired:
			return fmt.Errorf("suggest: insufficient credits: %w", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("suggest: request timed out: %w", err)
	}
	return fmt.Errorf("suggest: chat completion failed: %w", err)
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return result
}
