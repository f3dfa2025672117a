package extraction

import (
	"errors"
	"fmt"
)

// 基础错误类型
var (
	ErrTransport         = errors.New("调用解析引擎失败")
	ErrMalformedResponse = errors.New("解析引擎输出无法解析")
	ErrSuperseded        = errors.New("解析结果已被更新的上传取代")
)

// Error 携带调用上下文的解析错误
type Error struct {
	Path    string
	Op      string
	BaseErr error
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.Path)
}

func (e *Error) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *Error) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewTransportError 引擎无法启动、非零退出或输出到 stderr
func NewTransportError(path, op, detail string) error {
	return &Error{Path: path, Op: op, BaseErr: ErrTransport, Detail: detail}
}

// NewMalformedError 标准输出不是单个 JSON 文档
func NewMalformedError(path, detail string) error {
	return &Error{Path: path, Op: "decode", BaseErr: ErrMalformedResponse, Detail: detail}
}
