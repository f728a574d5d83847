package middleware

import (
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "requestId"
)

// RequestID echoes a caller-supplied request id or assigns a new ULID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs every request on the system channel once it completes.
func RequestLogger(logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"requestId", c.GetString(RequestIDKey),
			"duration", time.Since(start),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.System().Error("Request failed", attrs...)
		case status >= 400:
			logger.System().Warn("Request rejected", attrs...)
		default:
			logger.System().Debug("Request completed", attrs...)
		}
	}
}
