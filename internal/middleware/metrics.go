package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/service"
)

// observationSkip lists operational endpoints excluded from the HTTP
// histograms so scrapes and probes do not drown out desk traffic.
var observationSkip = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
	"/ready":   {},
}

// Metrics records per-route latency and counts on the registry exposed
// at /metrics.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if _, skip := observationSkip[path]; skip {
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
