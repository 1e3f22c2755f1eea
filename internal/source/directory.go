package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/log"
)

// DirectoryLoader 读取本地目录下的所有 PDF 文件（不递归）。
type DirectoryLoader struct {
	dir       string
	extractor PageExtractor
}

// NewDirectoryLoader 创建一个目录加载器。
func NewDirectoryLoader(dir string, extractor PageExtractor) *DirectoryLoader {
	return &DirectoryLoader{dir: dir, extractor: extractor}
}

func (l *DirectoryLoader) Sources(_ context.Context) ([]string, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: 无法访问目录 %s: %w", model.ErrSourceUnavailable, l.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s 不是目录", model.ErrSourceUnavailable, l.dir)
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取目录 %s 失败: %w", model.ErrSourceUnavailable, l.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isPDF(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (l *DirectoryLoader) Load(ctx context.Context) ([]model.Document, error) {
	names, err := l.Sources(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: 目录 %s 中没有 PDF 文件", model.ErrSourceUnavailable, l.dir)
	}

	var docs []model.Document
	for _, name := range names {
		pages, err := l.extract(ctx, name)
		if err != nil {
			return nil, err
		}
		log.Infof("[DirectoryLoader] 已读取 %s, 共 %d 页", name, len(pages))
		docs = append(docs, toDocuments(name, pages)...)
	}
	return docs, nil
}

func (l *DirectoryLoader) extract(ctx context.Context, name string) ([]string, error) {
	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: 打开 %s 失败: %w", model.ErrSourceUnavailable, name, err)
	}
	defer f.Close()

	pages, err := l.extractor.ExtractPages(ctx, f, name)
	if err != nil {
		log.Errorf("[DirectoryLoader] 提取 %s 文本失败: %v", name, err)
		return nil, fmt.Errorf("%w: 提取 %s 文本失败: %w", model.ErrSourceUnavailable, name, err)
	}
	return pages, nil
}
