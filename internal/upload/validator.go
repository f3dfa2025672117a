// Package upload 负责简历文件的上传前校验和上传进度协调。
package upload

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/Mangesh9326/Job-Platform/internal/constants"
)

// 允许的简历 MIME 类型
const (
	MIMEPDF  = "application/pdf"
	MIMEDoc  = "application/msword"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MaxFileSize 单个文件上限 10 MiB（含）
const MaxFileSize int64 = constants.MaxUploadSize

var allowedTypes = map[string]bool{
	MIMEPDF:  true,
	MIMEDoc:  true,
	MIMEDocx: true,
}

// Code 校验失败原因
type Code string

const (
	NoFileSelected  Code = "NoFileSelected"
	InvalidFileType Code = "InvalidFileType"
	FileTooLarge    Code = "FileTooLarge"
)

// ValidationError 上传校验错误，对用户可见
type ValidationError struct {
	Code    Code
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is 按 Code 比较，便于 errors.Is(err, ErrFileTooLarge)
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

var (
	ErrNoFileSelected  = &ValidationError{Code: NoFileSelected, Message: "No file uploaded"}
	ErrInvalidFileType = &ValidationError{Code: InvalidFileType, Message: "Only PDF / DOC / DOCX allowed"}
	ErrFileTooLarge    = &ValidationError{Code: FileTooLarge, Message: "Max size 10MB"}
)

// FileInfo 待校验的文件描述
type FileInfo struct {
	Present  bool
	Name     string
	MIMEType string
	Size     int64
}

// Validate 依次检查是否选择文件、类型、大小；无副作用
func Validate(f FileInfo) error {
	if !f.Present {
		return ErrNoFileSelected
	}
	if !allowedTypes[baseType(f.MIMEType)] {
		return ErrInvalidFileType
	}
	if f.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

// DetectMIME 在客户端未声明或只声明 application/octet-stream 时按扩展名推断类型
func DetectMIME(filename, declared string) string {
	bt := baseType(declared)
	if bt != "" && bt != "application/octet-stream" {
		return bt
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MIMEPDF
	case ".doc":
		return MIMEDoc
	case ".docx":
		return MIMEDocx
	}
	return bt
}

func baseType(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(declared)
	}
	return mt
}
