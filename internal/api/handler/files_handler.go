package handler

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/Mangesh9326/Job-Platform/internal/logger"
	"github.com/Mangesh9326/Job-Platform/internal/storage"
)

// FilesHandler 提供已上传文件的下载
type FilesHandler struct {
	uploadDir string
	objects   storage.ObjectStore // 本地不存在时回退，可为 nil
}

// NewFilesHandler 创建文件处理器
func NewFilesHandler(uploadDir string, objects storage.ObjectStore) *FilesHandler {
	return &FilesHandler{uploadDir: uploadDir, objects: objects}
}

// HandleGetFile GET /uploads/:filename
func (h *FilesHandler) HandleGetFile(ctx context.Context, c *app.RequestContext) {
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == "/" || name == "" {
		c.JSON(consts.StatusNotFound, utils.H{"message": "File not found"})
		return
	}

	path := filepath.Join(h.uploadDir, name)
	if _, err := os.Stat(path); err == nil {
		c.File(path)
		return
	}

	if h.objects != nil {
		rc, err := h.objects.GetOriginal(ctx, name)
		if err == nil {
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err == nil {
				contentType := mime.TypeByExtension(filepath.Ext(name))
				if contentType == "" {
					contentType = "application/octet-stream"
				}
				c.Data(consts.StatusOK, contentType, data)
				return
			}
		}
		logger.Debug().Err(err).Str("file", name).Msg("对象存储中也没有该文件")
	}
	c.JSON(consts.StatusNotFound, utils.H{"message": "File not found"})
}
