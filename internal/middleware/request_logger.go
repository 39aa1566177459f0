package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/logging"
	"github.com/habitlog/internal/metrics"
	"go.uber.org/zap"
)

// RequestLogger 记录每个请求的结构化日志并上报 Prometheus 指标。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start).Seconds()

		metrics.ReqCount.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(status),
		).Inc()

		metrics.ReqDuration.WithLabelValues(
			c.Request.Method,
			path,
		).Observe(duration)

		logging.Logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Float64("duration", duration),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
