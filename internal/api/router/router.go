package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/Mangesh9326/Job-Platform/internal/api/handler"
)

// Handlers 路由需要的全部处理器
type Handlers struct {
	Upload   *handler.UploadHandler
	Analysis *handler.AnalysisHandler
	Profile  *handler.ProfileHandler
	Files    *handler.FilesHandler
	// Auth 资料接口的鉴权中间件，为 nil 时不鉴权
	Auth app.HandlerFunc
	// UploadGuard 上传接口的限流中间件，可为 nil
	UploadGuard app.HandlerFunc
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, hs Handlers) {
	api := h.Group("/api/v1")

	upload := append(guard(hs.UploadGuard), hs.Upload.HandleUpload)
	api.POST("/upload", upload...)
	// 旧前端使用的路径
	h.POST("/api/upload", upload...)

	analysis := api.Group("/analysis")
	analysis.GET("/:sessionId", hs.Analysis.HandleGet)
	analysis.POST("/:sessionId/reconcile", hs.Analysis.HandleReconcile)
	analysis.POST("/:sessionId/edits", hs.Analysis.HandleEdits)

	profile := api.Group("/profile", guard(hs.Auth)...)
	profile.GET("/:userId", hs.Profile.HandleGet)
	profile.POST("/save", hs.Profile.HandleSave)

	h.GET("/uploads/:filename", hs.Files.HandleGetFile)

	// 添加健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

func guard(mw app.HandlerFunc) []app.HandlerFunc {
	if mw == nil {
		return nil
	}
	return []app.HandlerFunc{mw}
}
