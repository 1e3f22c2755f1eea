package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"doc-qa-go/internal/model"
)

// Memory 是暴力检索的内存向量索引，使用余弦相似度。
type Memory struct {
	mu        sync.RWMutex
	model     string
	dimension int
	entries   []model.IndexEntry
	norms     []float64
}

// NewMemory 创建一个只接受 modelVersion 所生成向量的内存索引。
func NewMemory(modelVersion string) *Memory {
	return &Memory{model: modelVersion}
}

// MemoryFactory 返回创建内存索引的 Factory。
func MemoryFactory() Factory {
	return func(_ string, modelVersion string) (Index, error) {
		return NewMemory(modelVersion), nil
	}
}

func (m *Memory) Model() string { return m.model }

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Dimension 返回索引中向量的维度，空索引为 0。
func (m *Memory) Dimension() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimension
}

// Add 追加条目。整批校验通过后才写入，任何一条不合法则整批拒绝。
func (m *Memory) Add(_ context.Context, entries []model.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dim := m.dimension
	for i, e := range entries {
		if e.ModelVersion != m.model {
			return fmt.Errorf("%w: 条目 %d 的模型为 %q, 索引模型为 %q", model.ErrEmbeddingMismatch, i, e.ModelVersion, m.model)
		}
		if len(e.Vector) == 0 {
			return fmt.Errorf("条目 %d 的向量为空", i)
		}
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: 条目 %d 维度为 %d, 索引维度为 %d", model.ErrEmbeddingMismatch, i, len(e.Vector), dim)
		}
	}

	m.dimension = dim
	for _, e := range entries {
		m.entries = append(m.entries, e)
		m.norms = append(m.norms, norm(e.Vector))
	}
	return nil
}

// Search 返回最多 k 个最相似的条目。
func (m *Memory) Search(_ context.Context, vector []float32, k int) ([]model.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if k <= 0 || len(m.entries) == 0 {
		return []model.SearchHit{}, nil
	}
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: 查询向量维度为 %d, 索引维度为 %d", model.ErrEmbeddingMismatch, len(vector), m.dimension)
	}

	qNorm := norm(vector)
	hits := make([]model.SearchHit, len(m.entries))
	for i, e := range m.entries {
		hits[i] = model.SearchHit{Chunk: e.Chunk, Score: cosine(e.Vector, vector, m.norms[i], qNorm)}
	}
	// 稳定排序保证同分条目保持写入顺序
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine 对零向量返回 0。
func cosine(a, b []float32, aNorm, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
