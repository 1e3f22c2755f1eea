package source

import (
	"context"
	"fmt"
	"path"
	"sort"
	"time"

	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/storage"

	"github.com/minio/minio-go/v7"
)

// BucketLoader 读取 MinIO 存储桶中指定前缀下的 PDF 对象。
type BucketLoader struct {
	client    *minio.Client
	bucket    string
	prefix    string
	extractor PageExtractor
}

// NewBucketLoader 创建一个存储桶加载器。
func NewBucketLoader(client *minio.Client, bucket, prefix string, extractor PageExtractor) *BucketLoader {
	return &BucketLoader{client: client, bucket: bucket, prefix: prefix, extractor: extractor}
}

func (l *BucketLoader) Sources(ctx context.Context) ([]string, error) {
	var names []string
	for obj := range l.client.ListObjects(ctx, l.bucket, minio.ListObjectsOptions{Prefix: l.prefix, Recursive: false}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: 列出存储桶 %s 失败: %w", model.ErrSourceUnavailable, l.bucket, obj.Err)
		}
		if isPDF(obj.Key) {
			names = append(names, obj.Key)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (l *BucketLoader) Load(ctx context.Context) ([]model.Document, error) {
	keys, err := l.Sources(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: 存储桶 %s/%s 中没有 PDF 文件", model.ErrSourceUnavailable, l.bucket, l.prefix)
	}

	var docs []model.Document
	for _, key := range keys {
		pages, err := l.extract(ctx, key)
		if err != nil {
			return nil, err
		}
		log.Infof("[BucketLoader] 已读取 %s, 共 %d 页", key, len(pages))
		docs = append(docs, toDocuments(path.Base(key), pages)...)
	}
	return docs, nil
}

func (l *BucketLoader) extract(ctx context.Context, key string) ([]string, error) {
	object, err := l.client.GetObject(ctx, l.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: 从 MinIO 下载 %s 失败: %w", model.ErrSourceUnavailable, key, err)
	}
	defer object.Close()

	pages, err := l.extractor.ExtractPages(ctx, object, key)
	if err != nil {
		log.Errorf("[BucketLoader] 提取 %s 文本失败: %v", key, err)
		return nil, fmt.Errorf("%w: 提取 %s 文本失败: %w", model.ErrSourceUnavailable, key, err)
	}
	return pages, nil
}

// PresignedURL 返回对象的临时下载链接。
func (l *BucketLoader) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return storage.GetPresignedURL(ctx, l.client, l.bucket, key, expiry)
}
