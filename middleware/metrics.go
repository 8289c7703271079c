package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"internhub/utils"
)

// Metrics records request counters and latency histograms per route
// template so path parameters do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		utils.HTTPRequestsTotal.WithLabelValues(
			ctx.Request.Method,
			route,
			strconv.Itoa(ctx.Writer.Status()),
		).Inc()
		utils.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
