package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/internal/services"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/logger"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// KeyBindingGroupHandler serves the platinum-only group endpoints. The router applies the
// group-management gate; ownership and system-group rules are enforced here.
type KeyBindingGroupHandler struct {
	groups      *services.KeyBindingGroupService
	provisioner *services.GroupProvisioner
	audit       *services.AuditService
}

func NewKeyBindingGroupHandler(groups *services.KeyBindingGroupService, provisioner *services.GroupProvisioner, audit *services.AuditService) *KeyBindingGroupHandler {
	return &KeyBindingGroupHandler{groups: groups, provisioner: provisioner, audit: audit}
}

type createGroupRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
}

type updateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"isActive"`
}

// GET /api/key-binding-groups
func (h *KeyBindingGroupHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := requestContext(c)

	if h.provisioner != nil {
		if _, err := h.provisioner.EnsureSampleBindings(ctx, user.ID); err != nil {
			logger.WithModule("handlers").Warn("sample binding provisioning failed",
				zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	groups, err := h.groups.List(ctx, user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, groups)
}

// POST /api/key-binding-groups
func (h *KeyBindingGroupHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createGroupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	group, err := h.groups.Create(requestContext(c), user.ID, services.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, group)
}

// PUT /api/key-binding-groups/:id
func (h *KeyBindingGroupHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateGroupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	id := c.Param("id")
	group, err := h.groups.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.authorize(c, user, group, services.AuditActionGroupUpdate); err != nil {
		response.Error(c, err)
		return
	}

	updated, err := h.groups.Update(requestContext(c), id, services.UpdateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// DELETE /api/key-binding-groups/:id
func (h *KeyBindingGroupHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	group, err := h.groups.Get(requestContext(c), id)
	switch {
	case errors.Is(err, services.ErrKeyBindingGroupNotFound):
		response.Acknowledge(c)
		return
	case err != nil:
		response.Error(c, err)
		return
	}
	if err := h.authorize(c, user, group, services.AuditActionGroupDelete); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.groups.DetachAndDelete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Acknowledge(c)
}

// authorize applies the mutation rules: groups another user owns look absent, system groups
// are read-only to non-admins. Rejections are audited as failures of action.
func (h *KeyBindingGroupHandler) authorize(c *gin.Context, user *models.User, group *models.KeyBindingGroup, action string) error {
	var err error
	switch {
	case !group.VisibleTo(user.ID) && !isAdmin(user):
		err = services.ErrKeyBindingGroupNotFound
	case group.IsSystem && !isAdmin(user):
		err = services.ErrSystemGroupImmutable
	case !group.IsSystem && !group.OwnedBy(user.ID) && !isAdmin(user):
		err = apperrors.ErrForbidden
	}
	if err != nil && h.audit != nil {
		h.audit.Record(requestContext(c), services.AuditEntry{
			Action:     action,
			Resource:   services.AuditResourceKeyBindingGroup,
			ResourceID: group.ID,
		}, err)
	}
	return err
}
