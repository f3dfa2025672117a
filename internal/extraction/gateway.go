// Package extraction 调用外部解析引擎，把简历文件转换为原始 JSON 结果。
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mangesh9326/Job-Platform/internal/logger"
	"github.com/Mangesh9326/Job-Platform/internal/tracing"
)

var tracer = otel.Tracer("job-platform/extraction")

// RawResult 解析引擎原样返回的 JSON 文档
type RawResult json.RawMessage

// Extractor 解析引擎抽象
type Extractor interface {
	Extract(ctx context.Context, filePath string) (RawResult, error)
}

// Runner 执行外部命令，返回标准输出与标准错误
type Runner interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)
}

// ExecRunner 基于 os/exec 的实现
type ExecRunner struct{}

// Run 实现 Runner
func (ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CommandGateway 以子进程方式调用解析引擎：命令 + 固定参数 + 文件路径
type CommandGateway struct {
	command      string
	args         []string
	timeout      time.Duration
	strictStderr bool
	runner       Runner
}

// Option CommandGateway 配置项
type Option func(*CommandGateway)

// WithArgs 设置位于文件路径之前的固定参数，例如脚本路径
func WithArgs(args ...string) Option {
	return func(g *CommandGateway) { g.args = append([]string{}, args...) }
}

// WithTimeout 单次调用超时，0 表示不限
func WithTimeout(d time.Duration) Option {
	return func(g *CommandGateway) { g.timeout = d }
}

// WithStrictStderr 为 true 时引擎向 stderr 输出任何内容都按失败处理（默认开启）
func WithStrictStderr(strict bool) Option {
	return func(g *CommandGateway) { g.strictStderr = strict }
}

// WithRunner 替换命令执行器
func WithRunner(r Runner) Option {
	return func(g *CommandGateway) { g.runner = r }
}

// NewCommandGateway 创建命令网关
func NewCommandGateway(command string, opts ...Option) *CommandGateway {
	g := &CommandGateway{
		command:      command,
		strictStderr: true,
		runner:       ExecRunner{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Extract 调用一次解析引擎，不做重试
func (g *CommandGateway) Extract(ctx context.Context, filePath string) (RawResult, error) {
	ctx, span := tracer.Start(ctx, "extraction.command")
	defer span.End()
	span.SetAttributes(
		attribute.String("extraction.command", g.command),
		attribute.String("extraction.file", filePath),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	args := append(append([]string{}, g.args...), filePath)
	start := time.Now()
	stdout, stderr, err := g.runner.Run(ctx, g.command, args)
	elapsed := time.Since(start)

	if err != nil {
		detail := err.Error()
		if ctxErr := ctx.Err(); ctxErr != nil {
			detail = fmt.Sprintf("%s (%v)", detail, ctxErr)
		}
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, tracing.TruncateString(msg, tracing.MaxStderrLength))
		}
		return nil, g.fail(span, NewTransportError(filePath, "exec", detail), elapsed)
	}
	if g.strictStderr && len(bytes.TrimSpace(stderr)) > 0 {
		detail := tracing.TruncateString(strings.TrimSpace(string(stderr)), tracing.MaxStderrLength)
		return nil, g.fail(span, NewTransportError(filePath, "stderr", detail), elapsed)
	}

	raw, err := decodeSingleDocument(stdout)
	if err != nil {
		return nil, g.fail(span, NewMalformedError(filePath, err.Error()), elapsed)
	}

	logger.Debug().Str("file", filePath).Dur("elapsed", elapsed).Int("bytes", len(raw)).Msg("解析引擎调用成功")
	return raw, nil
}

func (g *CommandGateway) fail(span trace.Span, err error, elapsed time.Duration) error {
	tracing.RecordError(span, err, tracing.ErrorTypeExternal)
	logger.Warn().Err(err).Str("command", g.command).Dur("elapsed", elapsed).Msg("解析引擎调用失败")
	return err
}

// decodeSingleDocument 标准输出必须恰好是一个 JSON 文档（允许前后空白）
func decodeSingleDocument(stdout []byte) (RawResult, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, errors.New("标准输出为空")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var doc json.RawMessage
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("不是合法 JSON: %w", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("JSON 文档之后存在多余输出")
	}
	return RawResult(doc), nil
}
