package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/metrics"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// Gate names reported in metrics and audit entries.
const (
	GateGroupManagement = "group_management"
	GateAdmin           = "admin"
	GateTool            = "tool"
)

// DenialRecorder audits requests rejected by an entitlement gate.
type DenialRecorder interface {
	RecordDenial(ctx context.Context, gate, method, path string, err error)
}

// RequireGroupManagement admits only subjects whose tier can manage key binding groups.
func RequireGroupManagement(recorder DenialRecorder) gin.HandlerFunc {
	return gate(GateGroupManagement, recorder, entitlements.RequireGroupManagement)
}

// RequireAdmin admits only administrators.
func RequireAdmin(recorder DenialRecorder) gin.HandlerFunc {
	return gate(GateAdmin, recorder, entitlements.RequireAdmin)
}

// RequireTool admits subjects whose tier unlocks the catalog tool with the given id.
func RequireTool(toolID string, recorder DenialRecorder) gin.HandlerFunc {
	return gate(GateTool, recorder, func(subject entitlements.Subject) error {
		tool, ok := entitlements.LookupTool(toolID)
		if !ok {
			return errors.ErrNotFound
		}
		return entitlements.RequireToolVariant(subject, tool.RequiredTier)
	})
}

// SubjectFromContext returns the entitlement subject stored by Auth.
func SubjectFromContext(c *gin.Context) (entitlements.Subject, bool) {
	v, ok := c.Get(CtxSubjectKey)
	if !ok {
		return entitlements.Subject{}, false
	}
	subject, ok := v.(entitlements.Subject)
	return subject, ok
}

func gate(name string, recorder DenialRecorder, check func(entitlements.Subject) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := SubjectFromContext(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		if err := check(subject); err != nil {
			metrics.EntitlementChecks.WithLabelValues(name, "denied").Inc()
			c.Set(CtxRejectedKey, name)
			if recorder != nil && c.Request.Method != http.MethodGet {
				recorder.RecordDenial(c.Request.Context(), name, c.Request.Method, c.FullPath(), err)
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		metrics.EntitlementChecks.WithLabelValues(name, "allowed").Inc()
		c.Next()
	}
}
