package dashboard

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bybitdash/logger"
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with an ID, reusing the caller's when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(log *logger.Log) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithComponent("http").WithFields(logger.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"client_ip":  c.ClientIP(),
		})
		logger.LogPerformanceEntry(entry, "http", "request", time.Since(start), nil)

		if c.Writer.Status() >= 500 {
			entry.Warn("request failed")
		}
	}
}
