package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/telemetry"
)

// HTTPMetrics returns a Gin middleware recording request count, latency and
// in-flight requests. Routes are labelled by their pattern so job IDs do not
// explode label cardinality; unmatched paths are labelled "unmatched".
func HTTPMetrics(metrics *telemetry.HTTPMetrics, skip ...string) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		metrics.Start()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.Done(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
