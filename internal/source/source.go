// Package source 负责从文档来源读取 PDF 并按页提取文本。
package source

import (
	"context"
	"io"
	"strings"

	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/log"
)

// Loader 从某个文档来源读取所有文档。
type Loader interface {
	// Load 返回按来源名、页码排序的文档。来源不可用或没有任何 PDF 时返回 ErrSourceUnavailable。
	Load(ctx context.Context) ([]model.Document, error)
	// Sources 返回 Load 会读取的 PDF 名称。
	Sources(ctx context.Context) ([]string, error)
}

// PageExtractor 从一个 PDF 中按页提取文本。
type PageExtractor interface {
	ExtractPages(ctx context.Context, r io.Reader, name string) ([]string, error)
}

// Limit 只保留前 max 个文档，max 为 0 时不限制。
func Limit(docs []model.Document, max int) []model.Document {
	if max <= 0 || len(docs) <= max {
		return docs
	}
	log.Infof("[Source] 文档数量 %d 超过上限 %d, 丢弃 %d 个", len(docs), max, len(docs)-max)
	return docs[:max]
}

func isPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func toDocuments(name string, pages []string) []model.Document {
	docs := make([]model.Document, 0, len(pages))
	for i, text := range pages {
		docs = append(docs, model.Document{Source: name, Page: i, Text: text})
	}
	return docs
}
