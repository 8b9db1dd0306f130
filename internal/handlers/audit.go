package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/services"
	appErrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// AuditHandler serves the admin view over the audit sink.
type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(svc *services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// List handles GET /api/admin/audit. since and until must be RFC 3339 when given.
func (h *AuditHandler) List(c *gin.Context) {
	filters := services.AuditFilters{
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
		Result:   c.Query("result"),
		Resource: c.Query("resource"),
	}
	for param, dst := range map[string]**time.Time{"since": &filters.Since, "until": &filters.Until} {
		raw := strings.TrimSpace(c.Query(param))
		if raw == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest(param+" must be an RFC 3339 timestamp"))
			return
		}
		*dst = &at
	}

	opts := services.AuditListOptions{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "per_page", 50),
		Filters:  filters,
	}
	entries, total, err := h.svc.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, entries, response.NewMeta(opts.Page, opts.PageSize, total))
}
