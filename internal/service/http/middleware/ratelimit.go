package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/doc-hub/internal/modules/logs"
	"github.com/reusedev/doc-hub/internal/modules/ratelimit"
	"github.com/reusedev/doc-hub/internal/service/http/handler/response"
)

// ClientRateLimit rejects clients that exceed their token bucket.
func ClientRateLimit(limiter *ratelimit.ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			logs.Logger.Warn().Str("client_ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("client rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.TooManyRequests)
			return
		}
		c.Next()
	}
}
