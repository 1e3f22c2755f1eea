// Package index 定义向量索引接口，并提供基于内存的余弦相似度实现。
package index

import (
	"context"

	"doc-qa-go/internal/model"
)

// Index 是一个会话内的向量索引。
// Search 的结果按相似度从高到低排列，分数相同时按写入顺序排列。
type Index interface {
	Add(ctx context.Context, entries []model.IndexEntry) error
	Search(ctx context.Context, vector []float32, k int) ([]model.SearchHit, error)
	Len() int
	// Model 返回写入本索引的向量所使用的 embedding 模型。
	Model() string
}

// Factory 为指定会话创建一个空索引。
type Factory func(sessionID, modelVersion string) (Index, error)
