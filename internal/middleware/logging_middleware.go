// internal/middleware/logging_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"serial-service/internal/utils"
)

// LoggingMiddleware logs every request once it has been served
func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		logger.LogAPIRequest(
			c.Request.Method,
			c.FullPath(),
			c.Request.UserAgent(),
			c.ClientIP(),
			c.GetString(utils.RequestIDKey),
			c.Writer.Status(),
			time.Since(startTime),
		)
	}
}
