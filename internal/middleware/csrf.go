package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/logger"
	"github.com/charlesng35/scribekeys/pkg/response"
)

const (
	// CSRFCookieName carries the double-submit token to the web UI.
	CSRFCookieName = "scribekeys_csrf"
	// CSRFHeaderName must echo the cookie on mutating requests.
	CSRFHeaderName = "X-CSRF-Token"

	csrfTokenBytes = 32
	csrfCookieTTL  = 12 * 60 * 60
)

// CSRF guards cookie sessions with a double-submit token. Reads receive the token as a
// cookie and a response header; writes must send it back in X-CSRF-Token. Bearer
// requests from the extension are exempt since a browser never adds that header itself.
func CSRF() gin.HandlerFunc {
	log := logger.WithModule("csrf")

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || bearerToken(c) != "" {
			c.Next()
			return
		}

		token, fresh, err := sessionCSRFToken(c)
		if err != nil {
			log.Error("csrf token generation failed", zap.Error(err))
			response.Error(c, errors.ErrInternalServer)
			c.Abort()
			return
		}

		if !mutates(c.Request.Method) {
			c.Header(CSRFHeaderName, token)
			c.Next()
			return
		}

		if !tokensMatch(token, c.GetHeader(CSRFHeaderName)) {
			log.Warn("csrf token mismatch",
				zap.String("method", c.Request.Method),
				zap.String("route", routeLabel(c)),
				zap.Bool("fresh_cookie", fresh),
			)
			c.Set(CtxRejectedKey, RejectedByCSRF)
			response.Error(c, errors.ErrCSRFInvalid)
			c.Abort()
			return
		}
		c.Next()
	}
}

// sessionCSRFToken returns the cookie token, minting one when the client has none.
// The cookie is rewritten either way so its lifetime slides with activity.
func sessionCSRFToken(c *gin.Context) (string, bool, error) {
	token, _ := c.Cookie(CSRFCookieName)
	fresh := token == ""
	if fresh {
		raw := make([]byte, csrfTokenBytes)
		if _, err := rand.Read(raw); err != nil {
			return "", false, err
		}
		token = base64.RawURLEncoding.EncodeToString(raw)
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   csrfCookieTTL,
		Secure:   overTLS(c.Request),
		SameSite: http.SameSiteStrictMode,
	})
	return token, fresh, nil
}

func mutates(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func tokensMatch(cookie, header string) bool {
	header = strings.TrimSpace(header)
	if cookie == "" || len(cookie) != len(header) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) == 1
}

// overTLS reports whether the client reached us over HTTPS, directly or via a proxy.
func overTLS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
