package model

// EsDocument 定义了存储在 Elasticsearch 中的分块文档结构。
type EsDocument struct {
	VectorID     string    `json:"vector_id"` // sessionID + chunkID
	SessionID    string    `json:"session_id"`
	Seq          int       `json:"seq"` // 写入顺序，用于同分排序
	ChunkID      string    `json:"chunk_id"`
	Source       string    `json:"source"`
	Page         int       `json:"page"`
	ChunkIndex   int       `json:"chunk_index"`
	TextContent  string    `json:"text_content"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}
