package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edukite/catalog-api/internal/service"
)

// Metrics records per-request duration and count. Requests are labelled by
// their registered route pattern so path parameters do not blow up label
// cardinality; anything that missed the router is grouped under "unmatched".
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
