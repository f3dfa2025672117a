package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Mangesh9326/Job-Platform/internal/config"
	"github.com/Mangesh9326/Job-Platform/internal/logger"
)

// S3API S3 客户端中用到的方法
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 基于 AWS S3 的对象存储
type S3 struct {
	client S3API
	bucket string
}

var _ ObjectStore = (*S3)(nil)

// NewS3 从默认凭证链（或配置中的静态密钥）创建客户端
func NewS3(ctx context.Context, cfg *config.S3Config) (*S3, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket 不能为空")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	logger.Info().Str("region", cfg.Region).Str("bucket", cfg.Bucket).Msg("S3客户端初始化成功")
	return NewS3WithClient(client, cfg.Bucket), nil
}

// NewS3WithClient 使用已有客户端
func NewS3WithClient(client S3API, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

// PutOriginal 实现 ObjectStore
func (s *S3) PutOriginal(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := OriginalObjectKey(filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("上传原始文件到S3失败: %w", err)
	}
	return key, nil
}

// GetOriginal 实现 ObjectStore
func (s *S3) GetOriginal(ctx context.Context, filename string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(OriginalObjectKey(filename)),
	})
	if err != nil {
		return nil, fmt.Errorf("从S3读取原始文件失败: %w", err)
	}
	return out.Body, nil
}
