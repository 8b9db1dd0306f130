package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/internal/services"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// KeyBindingHandler serves the caller's key bindings. Non-admins can only touch their own.
type KeyBindingHandler struct {
	bindings *services.KeyBindingService
	audit    *services.AuditService
}

func NewKeyBindingHandler(bindings *services.KeyBindingService, audit *services.AuditService) *KeyBindingHandler {
	return &KeyBindingHandler{bindings: bindings, audit: audit}
}

type createKeyBindingRequest struct {
	Shortcut string  `json:"shortcut" validate:"required,shortcut"`
	Template string  `json:"template" validate:"required,max=10000"`
	Category string  `json:"category" validate:"max=120"`
	GroupID  *string `json:"groupId" validate:"omitempty,uuid"`
	IsActive *bool   `json:"isActive"`
}

type updateKeyBindingRequest struct {
	Shortcut   *string `json:"shortcut" validate:"omitempty,shortcut"`
	Template   *string `json:"template" validate:"omitempty,max=10000"`
	Category   *string `json:"category" validate:"omitempty,max=120"`
	GroupID    *string `json:"groupId" validate:"omitempty,uuid"`
	ClearGroup bool    `json:"clearGroup"`
	IsActive   *bool   `json:"isActive"`
}

// GET /api/key-bindings
func (h *KeyBindingHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	opts := services.ListKeyBindingsOptions{
		Order:   services.OrderByCategory,
		GroupID: strings.TrimSpace(c.Query("groupId")),
	}
	if ungrouped := queryBool(c, "ungrouped"); ungrouped != nil {
		opts.Ungrouped = *ungrouped
	}
	if active := queryBool(c, "active"); active != nil {
		opts.ActiveOnly = *active
	}

	bindings, err := h.bindings.List(requestContext(c), user.ID, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, bindings)
}

// POST /api/key-bindings
func (h *KeyBindingHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createKeyBindingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	binding, err := h.bindings.Create(requestContext(c), user.ID, services.CreateKeyBindingInput{
		Shortcut: req.Shortcut,
		Template: req.Template,
		Category: req.Category,
		GroupID:  req.GroupID,
		IsActive: req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, binding)
}

// PUT /api/key-bindings/:id
func (h *KeyBindingHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateKeyBindingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if _, err := h.loadOwned(c, user, services.AuditActionKeyBindingUpdate); err != nil {
		response.Error(c, err)
		return
	}

	binding, err := h.bindings.Update(requestContext(c), c.Param("id"), "", services.UpdateKeyBindingInput{
		Shortcut:   req.Shortcut,
		Template:   req.Template,
		Category:   req.Category,
		GroupID:    req.GroupID,
		ClearGroup: req.ClearGroup,
		IsActive:   req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, binding)
}

// DELETE /api/key-bindings/:id
func (h *KeyBindingHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if _, err := h.loadOwned(c, user, services.AuditActionKeyBindingDelete); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.bindings.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Acknowledge(c)
}

// loadOwned fetches the binding named by the route and rejects callers that neither own it
// nor administer the service. Ownership rejections are audited as failures of action.
func (h *KeyBindingHandler) loadOwned(c *gin.Context, user *models.User, action string) (*models.KeyBinding, error) {
	binding, err := h.bindings.Get(requestContext(c), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if binding.UserID == user.ID || isAdmin(user) {
		return binding, nil
	}

	err = apperrors.NewForbidden("You can only modify your own key bindings")
	if h.audit != nil {
		h.audit.Record(requestContext(c), services.AuditEntry{
			Action:     action,
			Resource:   services.AuditResourceKeyBinding,
			ResourceID: binding.ID,
		}, err)
	}
	return nil, err
}
