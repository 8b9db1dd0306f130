package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/scribekeys/internal/cache"
	"github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/logger"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// RateLimitOptions allows Requests per Window for each caller and route.
type RateLimitOptions struct {
	Requests int
	Window   time.Duration
	Prefix   string
}

// RateLimit counts hits in counter, keyed by user id for authenticated callers and by
// client IP otherwise. A zero limit disables the check and counter failures let the
// request through.
func RateLimit(counter cache.Counter, opts RateLimitOptions) gin.HandlerFunc {
	log := logger.WithModule("ratelimit")
	limit := int64(opts.Requests)

	return func(c *gin.Context) {
		if counter == nil || limit <= 0 || opts.Window <= 0 {
			c.Next()
			return
		}

		w, err := counter.Hit(c.Request.Context(), opts.Prefix+rateLimitCaller(c)+"|"+routeLabel(c), opts.Window)
		if err != nil {
			log.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}

		resetSeconds := int(w.ResetIn / time.Second)
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(limit-w.Hits, 0), 10))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSeconds))

		if w.Hits > limit {
			c.Header("Retry-After", strconv.Itoa(resetSeconds+1))
			c.Set(CtxRejectedKey, RejectedByRateLimit)
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}

func rateLimitCaller(c *gin.Context) string {
	if userID := c.GetString(CtxUserIDKey); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}
