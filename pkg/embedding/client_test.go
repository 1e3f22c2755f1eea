package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// newEmbeddingServer 返回一个假的 /embeddings 接口：第 i 个输入的向量为 [len(input), i]，
// 响应中的数据顺序被刻意倒置。
func newEmbeddingServer(t *testing.T, calls *int32) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-004", req.Model)

		data := make([]embeddingItem, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, embeddingItem{
				Object:    "embedding",
				Embedding: []float32{float32(len(req.Input[i])), float32(i)},
				Index:     i,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestCreateEmbeddings_BatchesAndPreservesOrder(t *testing.T) {
	var calls int32
	url := newEmbeddingServer(t, &calls)
	c := NewClient(config.EmbeddingConfig{APIKey: "test-key", BaseURL: url, Model: "text-embedding-004", BatchSize: 2})

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := c.CreateEmbeddings(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[0], "vector %d", i)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "text-embedding-004", c.Model())
}

func TestCreateEmbedding_Single(t *testing.T) {
	var calls int32
	url := newEmbeddingServer(t, &calls)
	c := NewClient(config.EmbeddingConfig{APIKey: "test-key", BaseURL: url, Model: "text-embedding-004"})

	v, err := c.CreateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0}, v)
}

func TestCreateEmbeddings_MissingKey(t *testing.T) {
	c := NewClient(config.EmbeddingConfig{APIKeyEnv: "GOOGLE_API_KEY", Model: "text-embedding-004"})
	_, err := c.CreateEmbeddings(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProviderUnavailable)
}

func TestCreateEmbeddings_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.EmbeddingConfig{APIKey: "bad", BaseURL: srv.URL, Model: "m"})
	_, err := c.CreateEmbeddings(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProviderUnavailable)
}

func TestCreateEmbeddings_ShortResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(config.EmbeddingConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	_, err := c.CreateEmbeddings(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, model.ErrProviderUnavailable)
}
