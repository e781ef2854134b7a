package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payperplay/profiles/internal/monitoring"
	"github.com/payperplay/profiles/pkg/logger"
)

// RequestLogger logs all HTTP requests with structured logging and records
// request metrics per route
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// route template keeps label cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		monitoring.APIRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		monitoring.APIRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}

		if projectID := c.Param("id"); projectID != "" {
			fields["project_id"] = projectID
		}

		message := "HTTP request"
		if status >= 500 {
			logger.Error(message, nil, fields)
		} else if status >= 400 {
			logger.Warn(message, fields)
		} else {
			logger.Debug(message, fields)
		}
	}
}
