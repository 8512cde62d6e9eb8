package apiutil

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usersvc/usersvc/pkg/metrics"
)

// MetricsMiddleware records HTTP request counts and durations for Prometheus
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		// Use full route path (e.g., /users/:id) so cardinality stays bounded
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := fmt.Sprintf("%d", c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(path, method, status).Inc()
		dur := time.Since(start).Seconds()
		metrics.HTTPRequestDuration.WithLabelValues(path, method).Observe(dur)
	}
}
