// Package embedding provides a client for interacting with embedding models.
package embedding

import (
	"context"
	"fmt"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/log"

	openai "github.com/sashabaranov/go-openai"
)

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	// CreateEmbeddings 按输入顺序返回每段文本的向量。
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	// Model 返回生成向量所用的模型标识，写入索引用于一致性校验。
	Model() string
}

type openAICompatibleClient struct {
	cfg    config.EmbeddingConfig
	client *openai.Client
}

// NewClient creates a new embedding client against an OpenAI-compatible endpoint.
func NewClient(cfg config.EmbeddingConfig) Client {
	c := &openAICompatibleClient{cfg: cfg}
	if cfg.APIKey != "" {
		oaiCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oaiCfg.BaseURL = cfg.BaseURL
		}
		c.client = openai.NewClientWithConfig(oaiCfg)
	}
	if c.cfg.BatchSize <= 0 {
		c.cfg.BatchSize = 32
	}
	return c
}

func (c *openAICompatibleClient) Model() string {
	return c.cfg.Model
}

// CreateEmbedding calls the API to get the vector for a given text.
func (c *openAICompatibleClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// CreateEmbeddings 按 batch_size 分批调用接口。任一批失败则整体失败，不做重试。
func (c *openAICompatibleClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: 未配置 embedding 服务密钥 (%s)", model.ErrProviderUnavailable, c.cfg.APIKeyEnv)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (c *openAICompatibleClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	log.Infof("[EmbeddingClient] 开始调用 Embedding API, model: %s, inputs: %d", c.cfg.Model, len(texts))
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      openai.EmbeddingModel(c.cfg.Model),
		Dimensions: c.cfg.Dimensions,
	})
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败, error: %v", err)
		return nil, fmt.Errorf("%w: 调用 embedding 接口失败: %w", model.ErrProviderUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		log.Warnf("[EmbeddingClient] Embedding API 返回数量不符, 期望 %d, 实际 %d", len(texts), len(resp.Data))
		return nil, fmt.Errorf("%w: embedding 接口返回 %d 个向量, 期望 %d", model.ErrProviderUnavailable, len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || len(d.Embedding) == 0 || out[d.Index] != nil {
			return nil, fmt.Errorf("%w: embedding 接口返回了无效的向量数据 (index=%d)", model.ErrProviderUnavailable, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	log.Infof("[EmbeddingClient] 成功从 Embedding API 获取向量, 维度: %d", len(out[0]))
	return out, nil
}
