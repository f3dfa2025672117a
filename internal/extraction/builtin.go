package extraction

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Mangesh9326/Job-Platform/internal/logger"
	"github.com/Mangesh9326/Job-Platform/internal/parser"
	"github.com/Mangesh9326/Job-Platform/internal/tracing"
)

// FileParser 进程内解析器
type FileParser interface {
	ParseFile(ctx context.Context, path string) (*parser.Result, error)
}

// BuiltinExtractor 在进程内运行规则式解析引擎，输出与外部引擎相同的 JSON
type BuiltinExtractor struct {
	parser FileParser
}

// NewBuiltinExtractor 创建内置解析器，p 为空时使用默认规则引擎
func NewBuiltinExtractor(p FileParser) *BuiltinExtractor {
	if p == nil {
		p = parser.NewEngine()
	}
	return &BuiltinExtractor{parser: p}
}

// Extract 实现 Extractor
func (b *BuiltinExtractor) Extract(ctx context.Context, filePath string) (RawResult, error) {
	ctx, span := tracer.Start(ctx, "extraction.builtin")
	defer span.End()
	span.SetAttributes(attribute.String("extraction.file", filePath))

	start := time.Now()
	res, err := b.parser.ParseFile(ctx, filePath)
	if err != nil {
		err = NewTransportError(filePath, "builtin", err.Error())
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("内置解析失败")
		return nil, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		err = NewMalformedError(filePath, err.Error())
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}
	logger.Debug().Str("file", filePath).Dur("elapsed", time.Since(start)).Msg("内置解析完成")
	return RawResult(data), nil
}
