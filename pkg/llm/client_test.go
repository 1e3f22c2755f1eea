package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	frames []string
}

func (w *recordingWriter) WriteMessage(_ int, data []byte) error {
	w.frames = append(w.frames, string(data))
	return nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
}

func TestComplete_ReturnsRawContent(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer groq-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  raw **answer**\n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{APIKey: "groq-key", BaseURL: srv.URL, Model: "gemma2-9b-it",
		Generation: config.LLMGenerationConfig{Temperature: 0.5}})
	text, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "  raw **answer**\n", text)
	assert.Equal(t, "gemma2-9b-it", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hi", got.Messages[0].Content)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.5, got.Temperature, 1e-6)
}

func TestComplete_MissingKey(t *testing.T) {
	c := NewClient(config.LLMConfig{APIKeyEnv: "GROQ_API_KEY", Model: "m"})
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	assert.ErrorIs(t, err, model.ErrProviderUnavailable)
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	assert.ErrorIs(t, err, model.ErrProviderUnavailable)
}

func TestStreamChatMessages_WritesDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo", " world"} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	writer := &recordingWriter{}
	full, err := c.StreamChatMessages(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil, writer)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", full)
	assert.Equal(t, []string{"Hel", "lo", " world"}, writer.frames)
}
