package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/Mangesh9326/Job-Platform/internal/logger"
)

// TextSource 外部文本提取服务，内置提取器不支持的格式（如 .doc）交给它处理
type TextSource interface {
	ExtractText(ctx context.Context, name string, data []byte) (string, error)
}

// Doer hertz 客户端的最小接口，便于测试替换
type Doer interface {
	Do(ctx context.Context, req *protocol.Request, resp *protocol.Response) error
}

// TikaClient 基于 Apache Tika Server 的文本提取
type TikaClient struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	client    Doer
	timeout   time.Duration
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaClient)

// WithTikaTimeout 配置单次请求超时时间
func WithTikaTimeout(timeout time.Duration) TikaOption {
	return func(t *TikaClient) {
		t.timeout = timeout
	}
}

// WithTikaDoer 替换底层 HTTP 客户端
func WithTikaDoer(d Doer) TikaOption {
	return func(t *TikaClient) {
		t.client = d
	}
}

// NewTikaClient 创建 Tika 文本提取客户端
func NewTikaClient(serverURL string, opts ...TikaOption) (*TikaClient, error) {
	t := &TikaClient{
		ServerURL: strings.TrimRight(serverURL, "/"),
		timeout:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		c, err := client.NewClient(client.WithDialTimeout(5 * time.Second))
		if err != nil {
			return nil, fmt.Errorf("创建 Tika 客户端失败: %w", err)
		}
		t.client = c
	}
	return t, nil
}

// ExtractText PUT /tika，以纯文本返回文档内容
func (t *TikaClient) ExtractText(ctx context.Context, name string, data []byte) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetMethod(consts.MethodPut)
	req.SetRequestURI(t.ServerURL + "/tika")
	req.Header.Set("Accept", "text/plain")
	if name != "" {
		req.Header.Set("X-Tika-Resource-Name", filepath.Base(name))
	}
	req.SetBody(data)

	if err := t.client.Do(ctx, req, resp); err != nil {
		return "", fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return "", fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode())
	}

	text := string(resp.Body())
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	logger.Debug().Str("file", name).Int("chars", len(text)).Dur("elapsed", time.Since(start)).Msg("Tika 文本提取完成")
	return text, nil
}
