package service

import (
	"context"
	"fmt"

	"doc-qa-go/internal/index"
	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/log"
)

// retrieve 向量化问题并返回最相似的 k 个分块，按相似度从高到低排列。
// 问题向量与索引向量必须来自同一个 embedding 模型。
func retrieve(ctx context.Context, embeddingClient embedding.Client, idx index.Index, question string, k int) ([]model.SearchHit, error) {
	if embeddingClient.Model() != idx.Model() {
		return nil, fmt.Errorf("%w: 索引使用 %q, 当前 embedding 模型为 %q",
			model.ErrEmbeddingMismatch, idx.Model(), embeddingClient.Model())
	}

	queryVector, err := embeddingClient.CreateEmbedding(ctx, question)
	if err != nil {
		log.Errorf("[Retrieval] 向量化查询失败: %v", err)
		return nil, err
	}

	hits, err := idx.Search(ctx, queryVector, k)
	if err != nil {
		log.Errorf("[Retrieval] 向量检索失败: %v", err)
		return nil, err
	}
	log.Infof("[Retrieval] 检索完成, topK: %d, 命中: %d", k, len(hits))
	return hits, nil
}
