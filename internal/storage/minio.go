package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Mangesh9326/Job-Platform/internal/config"
	"github.com/Mangesh9326/Job-Platform/internal/logger"
)

// MinIO 提供对象存储功能
type MinIO struct {
	client *minio.Client
	bucket string
}

var _ ObjectStore = (*MinIO)(nil)

// NewMinIO 创建MinIO客户端，并确保存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.Endpoint == "" || cfg.OriginalsBucket == "" {
		return nil, fmt.Errorf("MinIO endpoint 与 originalsBucket 不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{client: client, bucket: cfg.OriginalsBucket}
	if err := m.ensureBucketExists(ctx, cfg.Location); err != nil {
		return nil, err
	}
	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", m.bucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

func (m *MinIO) ensureBucketExists(ctx context.Context, location string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", m.bucket, err)
	}
	logger.Info().Str("bucket", m.bucket).Msg("已创建存储桶")
	return nil
}

// PutOriginal 实现 ObjectStore
func (m *MinIO) PutOriginal(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := OriginalObjectKey(filename)
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("上传原始文件到MinIO失败: %w", err)
	}
	return key, nil
}

// GetOriginal 实现 ObjectStore
func (m *MinIO) GetOriginal(ctx context.Context, filename string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, OriginalObjectKey(filename), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("从MinIO读取原始文件失败: %w", err)
	}
	// GetObject 是惰性的，Stat 才会暴露对象不存在
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("从MinIO读取原始文件失败: %w", err)
	}
	return obj, nil
}
