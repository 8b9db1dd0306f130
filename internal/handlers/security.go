package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/security"
	"github.com/charlesng35/scribekeys/pkg/response"
)

type SecurityHandler struct {
	posture *security.Posture
}

func NewSecurityHandler(posture *security.Posture) *SecurityHandler {
	return &SecurityHandler{posture: posture}
}

// GET /api/admin/security/audit
func (h *SecurityHandler) Audit(c *gin.Context) {
	response.Success(c, http.StatusOK, h.posture.Run(requestContext(c)))
}
