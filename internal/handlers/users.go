package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/services"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// UserHandler exposes account administration to administrators.
type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"max=120"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
	Tier     string `json:"tier" validate:"omitempty,oneof=standard gold platinum"`
	IsActive *bool  `json:"isActive"`
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user"`
	Tier     *string `json:"tier" validate:"omitempty,oneof=standard gold platinum"`
	IsActive *bool   `json:"isActive"`
}

// GET /api/admin/users
func (h *UserHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 50)

	filters := services.UserFilters{
		Query:    c.Query("q"),
		IsActive: queryBool(c, "active"),
	}
	if raw := strings.TrimSpace(c.Query("tier")); raw != "" {
		tier, err := entitlements.ParseTier(raw)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("unknown subscription tier"))
			return
		}
		filters.Tier = &tier
	}
	if raw := strings.TrimSpace(c.Query("role")); raw != "" {
		role, err := entitlements.ParseRole(raw)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("unknown role"))
			return
		}
		filters.Role = &role
	}

	users, total, err := h.svc.List(requestContext(c), services.ListUsersOptions{Page: page, PageSize: perPage, Filters: filters})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, users, response.NewMeta(page, perPage, total))
}

// GET /api/admin/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// POST /api/admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Role:     entitlements.Role(req.Role),
		IsActive: req.IsActive,
	}
	if req.Tier != "" {
		tier, err := entitlements.ParseTier(req.Tier)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("unknown subscription tier"))
			return
		}
		input.Tier = tier
	}

	user, err := h.svc.Create(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, user)
}

// PUT /api/admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.UpdateUserInput{Name: req.Name, IsActive: req.IsActive}
	if req.Role != nil {
		role, err := entitlements.ParseRole(*req.Role)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("unknown role"))
			return
		}
		input.Role = &role
	}
	if req.Tier != nil {
		tier, err := entitlements.ParseTier(*req.Tier)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("unknown subscription tier"))
			return
		}
		input.Tier = &tier
	}

	user, err := h.svc.Update(requestContext(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DELETE /api/admin/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == caller.ID {
		response.Error(c, apperrors.NewBadRequest("you cannot delete your own account"))
		return
	}

	if err := h.svc.CascadeDelete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Acknowledge(c)
}
