package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/Mangesh9326/Job-Platform/internal/api/middleware"
	"github.com/Mangesh9326/Job-Platform/internal/logger"
	"github.com/Mangesh9326/Job-Platform/internal/profile"
)

// ProfileHandler 用户资料接口
type ProfileHandler struct {
	svc *profile.Service
}

// NewProfileHandler 创建资料处理器
func NewProfileHandler(svc *profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// HandleGet GET /api/v1/profile/:userId，不存在时返回 null
func (h *ProfileHandler) HandleGet(ctx context.Context, c *app.RequestContext) {
	userID := c.Param("userId")
	if !owns(c, userID) {
		c.JSON(consts.StatusForbidden, utils.H{"message": "Forbidden"})
		return
	}
	p, err := h.svc.Get(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("查询用户资料失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"message": "Server error"})
		return
	}
	if p == nil {
		c.JSON(consts.StatusOK, nil)
		return
	}
	c.JSON(consts.StatusOK, p)
}

// HandleSave POST /api/v1/profile/save，只更新请求中出现的字段
func (h *ProfileHandler) HandleSave(ctx context.Context, c *app.RequestContext) {
	body := c.Request.Body()
	var target struct {
		UserID any `json:"userId"`
	}
	if json.Unmarshal(body, &target) == nil {
		if id, ok := target.UserID.(string); ok && !owns(c, id) {
			c.JSON(consts.StatusForbidden, utils.H{"message": "Forbidden"})
			return
		}
	}

	p, err := h.svc.Save(ctx, body)
	switch {
	case err == nil:
	case errors.Is(err, profile.ErrUserIDRequired):
		c.JSON(consts.StatusBadRequest, utils.H{"message": profile.ErrUserIDRequired.Error()})
		return
	case errors.Is(err, profile.ErrInvalidProfile):
		c.JSON(consts.StatusBadRequest, utils.H{"message": "Invalid profile", "error": err.Error()})
		return
	default:
		logger.Error().Err(err).Msg("保存用户资料失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"message": "Failed to save"})
		return
	}

	c.JSON(consts.StatusOK, utils.H{"message": "Profile saved!", "profile": p})
}

// owns 未启用鉴权时放行；启用时令牌中的用户只能访问自己的资料
func owns(c *app.RequestContext, userID string) bool {
	tokenUser, ok := middleware.UserID(c)
	return !ok || tokenUser == userID
}
