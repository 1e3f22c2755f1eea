package service

import (
	"context"
	"time"

	"doc-qa-go/internal/source"
	"doc-qa-go/pkg/log"
)

// DocumentInfo 描述文档来源中的一个 PDF。
type DocumentInfo struct {
	Name        string `json:"name"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// DocumentService 接口定义了文档来源相关的查询。
type DocumentService interface {
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)
}

// presigner 由支持生成下载链接的来源实现（MinIO 存储桶）。
type presigner interface {
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type documentService struct {
	loader source.Loader
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(loader source.Loader) DocumentService {
	return &documentService{loader: loader}
}

// ListDocuments 列出索引构建时会读取的 PDF。
func (s *documentService) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	names, err := s.loader.Sources(ctx)
	if err != nil {
		return nil, err
	}
	p, canPresign := s.loader.(presigner)

	infos := make([]DocumentInfo, 0, len(names))
	for _, name := range names {
		info := DocumentInfo{Name: name}
		if canPresign {
			url, err := p.PresignedURL(ctx, name, time.Hour)
			if err != nil {
				log.Warnf("[DocumentService] 生成 %s 下载链接失败: %v", name, err)
			} else {
				info.DownloadURL = url
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}
