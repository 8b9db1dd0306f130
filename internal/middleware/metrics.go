package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/pkg/metrics"
)

// Metrics observes latency per route template and counts requests per API area and
// outcome. The outcome is "ok", "error" for 5xx, or the name of the rejecting middleware.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeLabel(c)
		status := c.Writer.Status()
		metrics.APILatency.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		metrics.HTTPRequests.WithLabelValues(apiArea(route), requestOutcome(c, status)).Inc()
	}
}

func requestOutcome(c *gin.Context, status int) string {
	if rejected := RejectedBy(c); rejected != "" {
		return rejected
	}
	if status >= 500 {
		return "error"
	}
	return "ok"
}

// apiArea collapses a route template to its first segment below /api, e.g.
// "/api/key-binding-groups/:id" is "key-binding-groups".
func apiArea(route string) string {
	switch {
	case route == "unmatched":
		return route
	case strings.HasPrefix(route, "/health"), strings.HasPrefix(route, "/api/health"):
		return "health"
	case strings.HasPrefix(route, "/api/"):
		rest := strings.TrimPrefix(route, "/api/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i]
		}
		return rest
	default:
		return "other"
	}
}
