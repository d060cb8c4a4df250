package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/transfer-ledger/internal/platform/metrics"
)

// Metrics records request counts and latencies labelled by route template, so that
// path parameters such as account ids do not create new series.
func Metrics(recorder *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
