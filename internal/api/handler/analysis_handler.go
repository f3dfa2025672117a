package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/Mangesh9326/Job-Platform/internal/constants"
	"github.com/Mangesh9326/Job-Platform/internal/logger"
	"github.com/Mangesh9326/Job-Platform/internal/resume"
)

// AnalysisHandler 会话槽位上的对账与编辑
type AnalysisHandler struct {
	store resume.SessionStore
}

// NewAnalysisHandler 创建分析页处理器
func NewAnalysisHandler(store resume.SessionStore) *AnalysisHandler {
	return &AnalysisHandler{store: store}
}

// EditRequest 批量编辑请求
type EditRequest struct {
	Operations []resume.Operation `json:"operations"`
	Save       bool               `json:"save"`
}

func (h *AnalysisHandler) slot(c *app.RequestContext) (string, bool) {
	sid := c.Param("sessionId")
	if sid == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"message": "session id is required"})
		return "", false
	}
	return constants.SessionSlotKey(sid), true
}

// HandleGet GET /api/v1/analysis/:sessionId
func (h *AnalysisHandler) HandleGet(ctx context.Context, c *app.RequestContext) {
	key, ok := h.slot(c)
	if !ok {
		return
	}
	out := resume.NewReconciler(h.store, key).Reconcile(ctx, nil)
	c.JSON(consts.StatusOK, utils.H{"state": out.State, "record": out.Result})
}

// HandleReconcile POST /api/v1/analysis/:sessionId/reconcile，请求体为解析引擎输出或规范化后的记录
func (h *AnalysisHandler) HandleReconcile(ctx context.Context, c *app.RequestContext) {
	key, ok := h.slot(c)
	if !ok {
		return
	}
	fresh, err := resume.Normalize(c.Request.Body())
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"message": msgParseFail, "error": err.Error()})
		return
	}
	out := resume.NewReconciler(h.store, key).Reconcile(ctx, fresh)
	c.JSON(consts.StatusOK, utils.H{
		"state":     out.State,
		"record":    out.Result,
		"persisted": out.Persisted,
	})
}

// HandleEdits POST /api/v1/analysis/:sessionId/edits
func (h *AnalysisHandler) HandleEdits(ctx context.Context, c *app.RequestContext) {
	key, ok := h.slot(c)
	if !ok {
		return
	}
	var req EditRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"message": "invalid request body", "error": err.Error()})
		return
	}

	rec := resume.NewReconciler(h.store, key).Load(ctx)
	if rec == nil {
		c.JSON(consts.StatusNotFound, utils.H{"message": "No resume data for this session"})
		return
	}

	editor := resume.NewEditor(rec, h.store, key)
	for i, op := range req.Operations {
		if err := editor.Apply(op); err != nil {
			status := consts.StatusBadRequest
			if errors.Is(err, resume.ErrIndexOutOfRange) {
				status = consts.StatusUnprocessableEntity
			}
			c.JSON(status, utils.H{"message": err.Error(), "index": i, "record": editor.Record()})
			return
		}
	}

	resp := utils.H{"record": editor.Record(), "saved": false}
	if f, ok := editor.Focus(); ok {
		resp["focus"] = f
	}
	if req.Save {
		if err := editor.Save(ctx); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("保存编辑结果失败")
			c.JSON(consts.StatusServiceUnavailable, utils.H{"message": err.Error(), "record": editor.Record()})
			return
		}
		resp["saved"] = true
	}
	c.JSON(consts.StatusOK, resp)
}
