package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// AccessLog 记录每个请求的方法、路径、状态码与耗时
func AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		hlog.CtxInfof(ctx, "status=%d cost=%s method=%s path=%s ip=%s",
			c.Response.StatusCode(), time.Since(start), c.Method(), c.Request.URI().PathOriginal(), c.ClientIP())
	}
}
