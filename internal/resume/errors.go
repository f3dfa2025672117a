package resume

import "errors"

var (
	// ErrMalformedExtraction 解析结果无法作为对象解释
	ErrMalformedExtraction = errors.New("解析结果不是合法的 JSON 对象")
	// ErrPersistenceUnavailable 会话存储不可写
	ErrPersistenceUnavailable = errors.New("会话存储不可用")
	// ErrIndexOutOfRange 列表下标越界
	ErrIndexOutOfRange = errors.New("列表下标越界")
	// ErrUnknownSection 未知的列表分区
	ErrUnknownSection = errors.New("未知的列表分区")
	// ErrUnknownField 未知的标量字段
	ErrUnknownField = errors.New("未知的字段")
	// ErrInvalidStoredRecord 会话中保存的数据不符合记录格式
	ErrInvalidStoredRecord = errors.New("会话数据格式无效")
)
