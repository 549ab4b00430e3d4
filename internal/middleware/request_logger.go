package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ua "github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the key used to store the request id in Gin context
const RequestIDKey = "request_id"

// RequestLogger creates a middleware that tags every request with an id
// and logs method, path, status, latency and the caller's device info
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		parser := ua.New(c.Request.UserAgent())
		browser, browserVer := parser.Browser()

		entry := logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"browser":     browser,
			"browser_ver": browserVer,
			"os":          parser.OSInfo().Name,
			"mobile":      parser.Mobile(),
		})

		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Error("request failed")
			return
		}

		if c.Writer.Status() >= 500 {
			entry.Error("request completed")
		} else {
			entry.Info("request completed")
		}
	}
}
