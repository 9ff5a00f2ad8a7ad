package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/portal-api/pkg/logger"
	"github.com/carebridge/portal-api/pkg/metrics"
)

// RequestLogger logs each request after it completes and records the
// duration metric.
func RequestLogger(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		if m != nil {
			m.ObserveRequest(c.Request.Method, path, status, elapsed)
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(CtxRequestID),
		}

		if status >= 500 {
			log.Error(nil, "request failed", fields...)
			return
		}
		log.Info("request completed", fields...)
	}
}
