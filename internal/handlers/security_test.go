package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/handlers/testutil"
)

type postureCheck struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type posturePayload struct {
	Checks  []postureCheck `json:"checks"`
	Summary map[string]int `json:"summary"`
}

func TestSecurityAudit(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateUser(entitlements.TierStandard, entitlements.RoleAdmin)
	user := env.CreateUser(entitlements.TierPlatinum, entitlements.RoleUser)

	resp := env.Request(http.MethodGet, "/api/admin/security/audit", nil, env.Token(user))
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = env.Request(http.MethodGet, "/api/admin/security/audit", nil, env.Token(admin))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var payload posturePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &payload)
	require.Len(t, payload.Checks, 5)

	statuses := make(map[string]string, len(payload.Checks))
	for _, check := range payload.Checks {
		statuses[check.ID] = check.Status
	}
	require.Equal(t, "pass", statuses["admin_present"])
	require.Equal(t, "pass", statuses["csrf_protection"])
	require.Equal(t, "warn", statuses["cors_origins"])
	require.Equal(t, "warn", statuses["jwt_secret_strength"])
}
