package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mangesh9326/Job-Platform/internal/constants"
	"github.com/Mangesh9326/Job-Platform/internal/extraction"
	"github.com/Mangesh9326/Job-Platform/internal/logger"
	"github.com/Mangesh9326/Job-Platform/internal/resume"
	"github.com/Mangesh9326/Job-Platform/internal/storage"
	"github.com/Mangesh9326/Job-Platform/internal/storage/models"
	"github.com/Mangesh9326/Job-Platform/internal/tracing"
	"github.com/Mangesh9326/Job-Platform/internal/upload"
	apputils "github.com/Mangesh9326/Job-Platform/pkg/utils"
)

// 返回给客户端的提示文案
const (
	msgUploaded   = "Uploaded & parsed successfully"
	msgParseFail  = "Parsing failed"
	msgUploadFail = "Upload failed"
	msgSuperseded = "Upload superseded by a newer file"
)

// UploadRecorder 上传审计与事件写入（MySQL 实现）
type UploadRecorder interface {
	RecordUpload(ctx context.Context, upload *models.ResumeUpload, event *models.OutboxMessage) error
}

// EventTarget 上传事件投递的交换机与路由键
type EventTarget struct {
	Exchange   string
	RoutingKey string
}

// UploadHandler 处理简历上传：校验、落盘、解析、规范化、会话对账
type UploadHandler struct {
	uploadDir string
	extractor extraction.Extractor
	sessions  *extraction.Sessions
	store     resume.SessionStore

	objects  storage.ObjectStore // 可选
	recorder UploadRecorder      // 可选
	target   EventTarget
}

// UploadOption 可选依赖
type UploadOption func(*UploadHandler)

// WithObjectStore 解析成功后把原始文件归档到对象存储
func WithObjectStore(o storage.ObjectStore) UploadOption {
	return func(h *UploadHandler) { h.objects = o }
}

// WithUploadRecorder 写入上传审计记录和 resume.uploaded 事件
func WithUploadRecorder(r UploadRecorder, target EventTarget) UploadOption {
	return func(h *UploadHandler) {
		h.recorder = r
		h.target = target
	}
}

// NewUploadHandler 创建上传处理器
func NewUploadHandler(uploadDir string, ex extraction.Extractor, sessions *extraction.Sessions, store resume.SessionStore, opts ...UploadOption) *UploadHandler {
	h := &UploadHandler{
		uploadDir: uploadDir,
		extractor: ex,
		sessions:  sessions,
		store:     store,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// uploadedEvent resume.uploaded 事件载荷
type uploadedEvent struct {
	UploadID    string `json:"upload_id"`
	SessionID   string `json:"session_id,omitempty"`
	FilePath    string `json:"file_path"`
	Fingerprint string `json:"fingerprint"`
	Name        string `json:"name"`
	UploadedAt  string `json:"uploaded_at"`
}

// HandleUpload POST /api/v1/upload
func (h *UploadHandler) HandleUpload(ctx context.Context, c *app.RequestContext) {
	span := trace.SpanFromContext(ctx)
	fh, formErr := c.FormFile(constants.UploadFormField)
	info := upload.FileInfo{Present: formErr == nil && fh != nil}
	if info.Present {
		info.Name = fh.Filename
		info.MIMEType = upload.DetectMIME(fh.Filename, fh.Header.Get("Content-Type"))
		info.Size = fh.Size
	}
	if err := upload.Validate(info); err != nil {
		var ve *upload.ValidationError
		if errors.As(err, &ve) {
			c.JSON(consts.StatusBadRequest, utils.H{"message": ve.Message})
			return
		}
		c.JSON(consts.StatusBadRequest, utils.H{"message": err.Error()})
		return
	}

	uploadID, err := uuid.NewV7()
	if err != nil {
		logger.Error().Err(err).Msg("生成上传ID失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"message": msgUploadFail})
		return
	}
	storedName := uploadID.String() + "-" + apputils.SanitizeFilename(fh.Filename)
	diskPath, err := h.saveFile(c, fh, storedName)
	if err != nil {
		logger.Error().Err(err).Str("file", fh.Filename).Msg("保存上传文件失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"message": msgUploadFail})
		return
	}

	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}
	runKey := sessionID
	if runKey == "" {
		runKey = uploadID.String()
	}

	runCtx, ticket := h.sessions.Begin(ctx, runKey)
	defer h.sessions.Finish(ticket)

	raw, err := h.sessions.Extract(runCtx, ticket, h.extractor, diskPath)
	if errors.Is(err, extraction.ErrSuperseded) {
		h.superseded(c, sessionID, storedName)
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("file", storedName).Msg("简历解析失败")
		tracing.RecordHTTPError(span, err, consts.StatusInternalServerError)
		c.JSON(consts.StatusInternalServerError, utils.H{"message": msgParseFail})
		return
	}

	rec, err := resume.Normalize(raw)
	if err != nil {
		logger.Error().Err(err).Str("file", storedName).Msg("解析结果无法规范化")
		tracing.RecordHTTPError(span, err, consts.StatusInternalServerError)
		c.JSON(consts.StatusInternalServerError, utils.H{"message": msgParseFail})
		return
	}

	span.SetAttributes(
		attribute.String("resume.stored_name", tracing.TruncateString(storedName, tracing.DefaultMaxLength)),
		attribute.String("resume.candidate_name", tracing.SafeAttributeValue("name", rec.Name, tracing.DefaultMaxLength)),
		attribute.Int("resume.skill_count", len(rec.Skills)),
	)

	filePath := constants.UploadsURLPrefix + storedName
	resp := utils.H{
		"message":    msgUploaded,
		"filePath":   filePath,
		"parsedData": rec,
	}

	if sessionID != "" {
		out := resume.NewReconciler(h.store, constants.SessionSlotKey(sessionID)).
			WithCommit(func(write func() error) error {
				return h.sessions.Commit(ticket, write)
			}).
			Reconcile(ctx, rec)
		// 对账期间被更新的上传取代：旧文件的结果既不写回也不返回
		if errors.Is(out.PersistErr, extraction.ErrSuperseded) || !h.sessions.IsCurrent(ticket) {
			h.superseded(c, sessionID, storedName)
			return
		}
		resp["analysis"] = utils.H{
			"state":     out.State,
			"record":    out.Result,
			"persisted": out.Persisted,
		}
	}

	h.archive(ctx, uploadID.String(), sessionID, storedName, diskPath, info, rec)

	logger.Info().Str("file", storedName).Str("session_id", sessionID).Int64("size", info.Size).Msg("简历上传并解析成功")
	c.JSON(consts.StatusOK, resp)
}

func (h *UploadHandler) superseded(c *app.RequestContext, sessionID, storedName string) {
	logger.Info().Str("session_id", sessionID).Str("file", storedName).Msg("解析结果已过期，丢弃")
	c.JSON(consts.StatusConflict, utils.H{"message": msgSuperseded})
}

func (h *UploadHandler) saveFile(c *app.RequestContext, fh *multipart.FileHeader, storedName string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}
	diskPath, err := filepath.Abs(filepath.Join(h.uploadDir, storedName))
	if err != nil {
		return "", err
	}
	if err := c.SaveUploadedFile(fh, diskPath); err != nil {
		return "", err
	}
	return diskPath, nil
}

// archive 归档原始文件并写入审计记录；失败只记录日志，不影响响应
func (h *UploadHandler) archive(ctx context.Context, uploadID, sessionID, storedName, diskPath string, info upload.FileInfo, rec *resume.Record) {
	if h.objects == nil && h.recorder == nil {
		return
	}

	data, err := os.ReadFile(diskPath)
	if err != nil {
		logger.Warn().Err(err).Str("file", storedName).Msg("读取已保存文件失败，跳过归档")
		return
	}

	row := &models.ResumeUpload{
		UploadUUID:       uploadID,
		SessionID:        sessionID,
		OriginalFilename: info.Name,
		StoredFilename:   storedName,
		MIMEType:         info.MIMEType,
		SizeBytes:        int64(len(data)),
		FileMD5:          apputils.CalculateMD5(data),
		Fingerprint:      resume.Fingerprint(rec),
		CreatedAt:        time.Now(),
	}

	if h.objects != nil {
		key, err := h.objects.PutOriginal(ctx, storedName, bytes.NewReader(data), int64(len(data)), info.MIMEType)
		if err != nil {
			logger.Warn().Err(err).Str("file", storedName).Msg("归档原始文件失败")
		}
		row.ObjectKey = key
	}

	if h.recorder == nil {
		return
	}
	payload, _ := json.Marshal(uploadedEvent{
		UploadID:    uploadID,
		SessionID:   sessionID,
		FilePath:    constants.UploadsURLPrefix + storedName,
		Fingerprint: row.Fingerprint,
		Name:        rec.Name,
		UploadedAt:  row.CreatedAt.Format(time.RFC3339),
	})
	event := &models.OutboxMessage{
		AggregateID:      uploadID,
		EventType:        constants.ResumeUploadedEvent,
		Payload:          string(payload),
		TargetExchange:   h.target.Exchange,
		TargetRoutingKey: h.target.RoutingKey,
		Status:           models.OutboxStatusPending,
	}
	if err := h.recorder.RecordUpload(ctx, row, event); err != nil {
		logger.Warn().Err(err).Str("upload_id", uploadID).Msg("写入上传记录失败")
	}
}
