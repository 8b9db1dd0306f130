package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/pkg/metrics"
)

func TestAPIArea(t *testing.T) {
	cases := map[string]string{
		"/api/key-binding-groups/:id": "key-binding-groups",
		"/api/key-bindings":           "key-bindings",
		"/api/admin/users/:id":        "admin",
		"/api/extension/sync":         "extension",
		"/api/health":                 "health",
		"/health/ready":               "health",
		"/metrics":                    "other",
		"unmatched":                   "unmatched",
	}
	for route, want := range cases {
		require.Equal(t, want, apiArea(route), route)
	}
}

func TestMetricsCountsOutcomeByArea(t *testing.T) {
	gin.SetMode(gin.TestMode)
	standard := entitlements.Subject{UserID: "u-std", Role: entitlements.RoleUser, Tier: entitlements.TierStandard, IsActive: true}
	platinum := entitlements.Subject{UserID: "u-plat", Role: entitlements.RoleUser, Tier: entitlements.TierPlatinum, IsActive: true}

	r := gin.New()
	r.Use(Metrics())
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Tier") == "platinum" {
			c.Set(CtxSubjectKey, platinum)
		} else {
			c.Set(CtxSubjectKey, standard)
		}
		c.Next()
	})
	r.GET("/api/key-binding-groups", RequireGroupManagement(nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	denied := metrics.HTTPRequests.WithLabelValues("key-binding-groups", GateGroupManagement)
	allowed := metrics.HTTPRequests.WithLabelValues("key-binding-groups", "ok")
	deniedBefore, allowedBefore := testutil.ToFloat64(denied), testutil.ToFloat64(allowed)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/key-binding-groups", nil))
	req := httptest.NewRequest(http.MethodGet, "/api/key-binding-groups", nil)
	req.Header.Set("X-Tier", "platinum")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, deniedBefore+1, testutil.ToFloat64(denied))
	require.Equal(t, allowedBefore+1, testutil.ToFloat64(allowed))
}
