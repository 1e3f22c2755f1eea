package source

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"doc-qa-go/pkg/log"

	"github.com/minio/minio-go/v7"
)

// SeedBucket 把本地目录中的 PDF 上传到存储桶（幂等）。
// 对象已存在且 ETag 与文件 MD5 一致时跳过。返回新上传的文件数。
func SeedBucket(ctx context.Context, client *minio.Client, bucket, prefix, dir string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Infof("[SeedBucket] 目录 '%s' 不存在或不可用，跳过初始化导入", dir)
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("读取目录 %s 失败: %w", dir, err)
	}

	uploaded := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !isPDF(e.Name()) {
			continue
		}
		filePath := filepath.Join(dir, e.Name())
		key := path.Join(prefix, e.Name())

		fileMD5, err := md5File(filePath)
		if err != nil {
			log.Warnf("[SeedBucket] 读取文件失败: %s, err=%v", filePath, err)
			continue
		}
		if stat, err := client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err == nil &&
			strings.Trim(stat.ETag, `"`) == fileMD5 {
			log.Infof("[SeedBucket] 已存在，跳过: %s (md5=%s)", key, fileMD5)
			continue
		}

		if _, err := client.FPutObject(ctx, bucket, key, filePath, minio.PutObjectOptions{
			ContentType: "application/pdf",
		}); err != nil {
			return uploaded, fmt.Errorf("上传 %s 失败: %w", key, err)
		}
		log.Infof("[SeedBucket] 导入完成: %s", key)
		uploaded++
	}
	return uploaded, nil
}

func md5File(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
