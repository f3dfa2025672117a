package constants

import "time"

const (
	// SessionSlotName 分析页会话槽位名，沿用前端 localStorage 的键
	SessionSlotName = "resume_analysis_data"

	// DefaultSessionTTL 会话槽位默认保留时长
	DefaultSessionTTL = 7 * 24 * time.Hour

	// MaxUploadSize 单个简历文件的大小上限（含）
	MaxUploadSize = 10 * 1024 * 1024

	// UploadFormField multipart 中简历文件的字段名
	UploadFormField = "resume"

	// UploadsURLPrefix 已存储文件的访问路径前缀
	UploadsURLPrefix = "/uploads/"

	// ResumeUploadedEvent 上传完成事件类型
	ResumeUploadedEvent = "resume.uploaded"
)
