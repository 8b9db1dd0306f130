package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/middleware"
	"github.com/charlesng35/scribekeys/internal/models"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUser returns the account loaded by the auth middleware, writing a 401 when absent.
func currentUser(c *gin.Context) (*models.User, bool) {
	if v, ok := c.Get(middleware.CtxUserKey); ok {
		if user, ok := v.(*models.User); ok && user != nil {
			return user, true
		}
	}
	response.Error(c, apperrors.ErrUnauthorized)
	return nil, false
}

func isAdmin(user *models.User) bool {
	return user != nil && entitlements.IsAdmin(user.Subject())
}
