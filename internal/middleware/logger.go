package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/charlesng35/scribekeys/pkg/logger"
)

// Middleware names recorded under CtxRejectedKey when they short-circuit a request.
// Entitlement gates record their Gate* name.
const (
	RejectedByAuth      = "auth"
	RejectedByCSRF      = "csrf"
	RejectedByRateLimit = "ratelimit"
)

// Logger writes one access-log line per request, annotated with the caller's entitlement
// subject and the middleware that rejected the request, if any. Health probes log at debug.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", routeLabel(c)),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if subject, ok := SubjectFromContext(c); ok {
			fields = append(fields,
				zap.String("user_id", subject.UserID),
				zap.String("tier", subject.Tier.String()),
				zap.String("role", string(subject.Role)),
			)
		}
		if rejected := RejectedBy(c); rejected != "" {
			fields = append(fields, zap.String("rejected_by", rejected))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if ce := logger.WithModule("http").Check(accessLevel(path, status), "request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

// RejectedBy reports which middleware short-circuited the request.
func RejectedBy(c *gin.Context) string {
	return c.GetString(CtxRejectedKey)
}

func accessLevel(path string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case strings.HasPrefix(path, "/health"):
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// routeLabel is the matched route template, or "unmatched" so raw 404 paths never
// become label values.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
