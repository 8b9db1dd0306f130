package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/scribekeys/internal/auditctx"
	iauth "github.com/charlesng35/scribekeys/internal/auth"
	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/logger"
	"github.com/charlesng35/scribekeys/pkg/response"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxUserIDKey    = "userID"
	CtxUserKey      = "authUser"
	CtxSubjectKey   = "authSubject"
	CtxSessionIDKey = "sessionID"
	CtxRejectedKey  = "rejectedBy"
)

// DefaultSessionCookie is the cookie the web UI's session token travels in.
const DefaultSessionCookie = "scribekeys_session"

// UserLoader resolves the account behind a validated token.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuthOptions configures the Auth middleware.
type AuthOptions struct {
	CookieName string
}

// Auth validates the session token from the Authorization header (the browser extension)
// or the session cookie (the web UI), loads the user and rejects inactive accounts.
// The user's stored role and tier, not the token claims, drive entitlement checks.
func Auth(jwt *iauth.JWTService, users UserLoader, opts AuthOptions) gin.HandlerFunc {
	cookieName := strings.TrimSpace(opts.CookieName)
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	log := logger.WithModule("auth")

	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}
		if strings.TrimSpace(token) == "" {
			unauthorized(c)
			return
		}

		claims, err := jwt.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			unauthorized(c)
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || user == nil {
			if err != nil && errors.FromError(err).StatusCode >= http.StatusInternalServerError {
				log.Warn("failed to load authenticated user", zap.String("user_id", claims.UserID), zap.Error(err))
			}
			unauthorized(c)
			return
		}
		if !user.IsActive {
			unauthorized(c)
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxUserKey, user)
		c.Set(CtxSubjectKey, user.Subject())
		if claims.SessionID != "" {
			c.Set(CtxSessionIDKey, claims.SessionID)
		}

		ctx := auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			UserID:    user.ID,
			Email:     user.Email,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.Set(CtxRejectedKey, RejectedByAuth)
	response.Error(c, errors.ErrUnauthorized)
	c.Abort()
}
