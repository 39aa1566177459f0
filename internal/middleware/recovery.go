package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/logging"
	"go.uber.org/zap"
)

// Recovery 捕获 handler panic，记录日志并返回 500。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logging.Logger.Error("panic_recovered", zap.Any("panic", r))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				c.Abort()
			}
		}()
		c.Next()
	}
}
