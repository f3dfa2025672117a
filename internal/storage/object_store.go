package storage

import (
	"context"
	"io"
	"path"
)

// ObjectStore 原始简历文件的归档存储
type ObjectStore interface {
	// PutOriginal 上传原始文件，返回对象键
	PutOriginal(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
	// GetOriginal 读取原始文件，调用方负责关闭
	GetOriginal(ctx context.Context, filename string) (io.ReadCloser, error)
}

// OriginalObjectKey 上传文件在对象存储中的键
func OriginalObjectKey(filename string) string {
	return path.Join("uploads", path.Base(filename))
}
