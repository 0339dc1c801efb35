package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
)

func chatServer(t *testing.T, status int, content string, seen *http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r.Clone(context.Background())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "nope", "type": "invalid_request_error"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "m",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	ai := entity.DefaultAIConfig()
	ai.APIKey = "test-key"
	c, err := New(Config{AI: ai, BaseURL: baseURL})
	require.NoError(t, err)
	return c
}

var req = entity.CommentRequest{VideoTitle: "Go in 100 seconds", ChannelName: "Fireship"}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Config{AI: entity.DefaultAIConfig()})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestBaseURLFor(t *testing.T) {
	assert.Equal(t, OpenRouterBaseURL, BaseURLFor(entity.ProviderOpenRouter))
	assert.Equal(t, GroqBaseURL, BaseURLFor(entity.ProviderGroq))
}

func TestSuggest(t *testing.T) {
	var seen http.Request
	srv := chatServer(t, http.StatusOK, "```json\n[\"Great video\", \"Loved it\"]\n```", &seen)
	c := newClient(t, srv.URL)

	got, err := c.Suggest(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, []string{"Great video", "Loved it"}, got)
	assert.Equal(t, "Bearer test-key", seen.Header.Get("Authorization"))
	assert.Equal(t, appTitle, seen.Header.Get("X-Title"))
	assert.Equal(t, "/chat/completions", seen.URL.Path)
}

func TestSuggest_RequiresContext(t *testing.T) {
	c := newClient(t, "http://127.0.0.1:1")
	_, err := c.Suggest(context.Background(), entity.CommentRequest{VideoTitle: "x"})
	assert.ErrorIs(t, err, ErrInsufficientContext)
}

func TestSuggest_Unauthorized(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized, "", nil)
	c := newClient(t, srv.URL)

	_, err := c.Suggest(context.Background(), req)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API key")
}

func TestParse(t *testing.T) {
	c := &Client{cfg: entity.AIConfig{MaxSuggestions: 3}, logger: ports.NopLogger()}

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain array", `["a","b"]`, []string{"a", "b"}},
		{"fenced", "```\n[\"a\"]\n```", []string{"a"}},
		{"capped", `["1","2","3","4","5","6"]`, []string{"1", "2", "3"}},
		{"non strings", `[1, "x", ""]`, []string{"1", "x"}},
		{"object", `{"comment":"hi"}`, []string{`{"comment":"hi"}`}},
		{"prose", "Sure! Here you go", []string{"Sure! Here you go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.parse(tt.raw))
		})
	}
}
