package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/internal/auth"
	"go.uber.org/zap"
)

// AccessLog logs one line per request after it completes
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", auth.GetRequestID(c.Request.Context())),
		}
		if info := auth.GetAuthInfo(c.Request.Context()); info.Subject != "" {
			fields = append(fields, zap.String("subject", info.Subject))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}
