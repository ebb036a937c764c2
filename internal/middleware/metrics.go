package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, so probing
// arbitrary paths cannot grow the label set.
const unmatchedRoute = "unmatched"

// Metrics observes every request except those to the listed paths (the
// scrape endpoint, health checks).
func Metrics(metrics *service.MetricsService, skip ...string) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(c *gin.Context) {
		if skipped[c.Request.URL.Path] {
			c.Next()
			return
		}
		began := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(began))
	}
}
