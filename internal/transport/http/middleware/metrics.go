package middleware

import (
	"strconv"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/metrics"
	"github.com/gin-gonic/gin"
)

const anonymousRole = "anonymous"

// Metrics labels by route template, so /admin/users/:id stays one series.
// It runs ahead of Authenticate and reads the principal once the chain returns.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		role := anonymousRole
		if p, ok := PrincipalFrom(c); ok {
			role = string(p.Role)
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status, role).Inc()
	}
}
