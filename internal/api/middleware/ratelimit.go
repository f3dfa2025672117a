package middleware

import (
	"context"
	"math"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/Mangesh9326/Job-Platform/internal/logger"
	"github.com/Mangesh9326/Job-Platform/internal/ratelimit"
)

// RateLimit 令牌耗尽时返回 429 并带上 Retry-After
func RateLimit(tb *ratelimit.TokenBucket) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if tb.Allow() {
			c.Next(ctx)
			return
		}
		wait := int(math.Ceil(tb.RetryAfter().Seconds()))
		if wait < 1 {
			wait = 1
		}
		logger.Warn().Str("path", string(c.Path())).Str("ip", c.ClientIP()).Msg("请求过于频繁")
		c.Header("Retry-After", strconv.Itoa(wait))
		c.AbortWithStatusJSON(consts.StatusTooManyRequests, utils.H{"message": "Too many uploads, please retry later"})
	}
}
