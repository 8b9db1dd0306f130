package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// APIContentSecurityPolicy forbids every fetch and every framing. Responses are JSON
// documents read by the web UI and the extension, never rendered as pages.
const APIContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders hardens JSON responses. Bodies under /api carry user templates and are
// marked uncacheable; HSTS is only sent when the request arrived over TLS.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", APIContentSecurityPolicy)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-site")

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			h.Set("Cache-Control", "no-store")
		}
		if overTLS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}
		c.Next()
	}
}
