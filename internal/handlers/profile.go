package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/pkg/response"
)

type entitlementsDTO struct {
	CanManageGroups bool `json:"canManageGroups"`
	IsAdmin         bool `json:"isAdmin"`
}

type profileDTO struct {
	User         *models.User              `json:"user"`
	Entitlements entitlementsDTO           `json:"entitlements"`
	Tools        []entitlements.ToolAccess `json:"tools"`
}

// ProfileHandler exposes the caller's account and what their tier unlocks.
type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// GET /api/me
func (h *ProfileHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	subject := user.Subject()
	response.Success(c, http.StatusOK, profileDTO{
		User: user,
		Entitlements: entitlementsDTO{
			CanManageGroups: entitlements.CanManageGroups(subject),
			IsAdmin:         entitlements.IsAdmin(subject),
		},
		Tools: entitlements.Catalog(subject),
	})
}

// GET /api/tools
func (h *ProfileHandler) Tools(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, entitlements.Catalog(user.Subject()))
}
