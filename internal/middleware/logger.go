package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID tags each request with an id, reusing the caller's when given.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("requestID", rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}

// Logger writes one line per request.
func Logger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := logger.Info()
		switch {
		case status >= 500:
			evt = logger.Error()
		case status >= 400:
			evt = logger.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}

		evt.
			Str("request_id", c.GetString("requestID")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("remote_ip", c.ClientIP()).
			Msg("request")
	}
}

// Recovery turns panics into a 500 and logs them.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("recovered from panic")
		c.AbortWithStatus(500)
	})
}
