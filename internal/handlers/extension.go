package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/internal/services"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// ExtensionHandler serves the browser extension's settings and sync endpoints.
type ExtensionHandler struct {
	settings *services.ExtensionSettingsService
	sync     *services.ExtensionSyncService
}

func NewExtensionHandler(settings *services.ExtensionSettingsService, sync *services.ExtensionSyncService) *ExtensionHandler {
	return &ExtensionHandler{settings: settings, sync: sync}
}

type extensionSettingsDTO struct {
	IsEnabled  bool           `json:"isEnabled"`
	Settings   map[string]any `json:"settings"`
	LastSyncAt *time.Time     `json:"lastSyncAt,omitempty"`
}

type saveExtensionSettingsRequest struct {
	IsEnabled *bool          `json:"isEnabled" validate:"required"`
	Settings  map[string]any `json:"settings"`
}

func mapExtensionSettings(record *models.ExtensionSettings) extensionSettingsDTO {
	if record == nil {
		return extensionSettingsDTO{Settings: map[string]any{}}
	}
	return extensionSettingsDTO{
		IsEnabled:  record.IsEnabled,
		Settings:   services.DecodeSettings(record.Settings),
		LastSyncAt: record.LastSyncAt,
	}
}

// GET /api/extension-settings
func (h *ExtensionHandler) GetSettings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	record, found, err := h.settings.Get(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !found {
		record = nil
	}
	response.Success(c, http.StatusOK, mapExtensionSettings(record))
}

// POST /api/extension-settings
func (h *ExtensionHandler) SaveSettings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req saveExtensionSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	record, err := h.settings.Upsert(requestContext(c), user.ID, *req.IsEnabled, req.Settings)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapExtensionSettings(record))
}

// GET /api/extension/status
func (h *ExtensionHandler) Status(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.sync.Status(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// POST /api/extension/sync
func (h *ExtensionHandler) Sync(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	snapshot, err := h.sync.Sync(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}
