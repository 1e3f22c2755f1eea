package model

import "errors"

var (
	// ErrSourceUnavailable 表示文档目录缺失、为空或无法读取，或文本提取服务不可用。
	ErrSourceUnavailable = errors.New("document source unavailable")
	// ErrProviderUnavailable 表示 embedding 或大模型服务的密钥缺失、无效或网络失败。
	ErrProviderUnavailable = errors.New("model provider unavailable")
	// ErrEmptyQuestion 表示问题为空白。
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrEmbeddingMismatch 表示查询向量与索引向量来自不同的 embedding 模型或维度。
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")
	// ErrSessionNotFound 表示会话不存在。
	ErrSessionNotFound = errors.New("session not found")
)
