package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/pkg/resilience"
)

// Timeout applies the handler deadline to the request context unless the
// caller already set a tighter one.
func Timeout(config *resilience.TimeoutConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if _, hasDeadline := ctx.Deadline(); hasDeadline {
			c.Next()
			return
		}

		timeoutCtx, cancel := config.HandlerContext(ctx)
		defer cancel()

		c.Request = c.Request.WithContext(timeoutCtx)
		c.Next()
	}
}
