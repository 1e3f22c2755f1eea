// Package model 包含了应用的数据模型定义。
package model

import "time"

// Document 是从文档来源读取出的一页文本。创建后不再修改，切块完成即丢弃。
type Document struct {
	Source string // 文件名或对象名
	Page   int    // 从 0 开始的页码
	Text   string
}

// Chunk 是 Document 文本中的一段连续子串，是检索的基本单位。
type Chunk struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Page   int    `json:"page"`
	Index  int    `json:"index"` // 在所属 Document 中的序号
	Text   string `json:"text"`
}

// IndexEntry 是写入向量索引的一条记录。
// ModelVersion 记录生成 Vector 的 embedding 模型，查询向量必须来自同一模型。
type IndexEntry struct {
	Chunk        Chunk
	Vector       []float32
	ModelVersion string
}

// SearchHit 是一次检索命中的分块及其相似度分数（越大越相关）。
type SearchHit struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// BuildSummary 描述一次索引构建的结果。
type BuildSummary struct {
	DocumentsLoaded int           `json:"documentsLoaded"`
	DocumentsUsed   int           `json:"documentsUsed"`
	Chunks          int           `json:"chunks"`
	Dimension       int           `json:"dimension"`
	Model           string        `json:"model"`
	Duration        time.Duration `json:"-"`
	BuiltAt         time.Time     `json:"builtAt"`
}

// Answer 是一次问答的完整结果。Context 按相似度从高到低排列。
type Answer struct {
	Question string        `json:"question"`
	Text     string        `json:"answer"`
	Context  []SearchHit   `json:"context"`
	Elapsed  time.Duration `json:"-"`
}

// ContextTexts 返回按检索顺序排列的分块原文。
func (a *Answer) ContextTexts() []string {
	texts := make([]string, 0, len(a.Context))
	for _, h := range a.Context {
		texts = append(texts, h.Chunk.Text)
	}
	return texts
}
