package handlers_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/scribekeys/internal/database"
	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/handlers/testutil"
	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/internal/services"
)

type groupPayload struct {
	ID       string  `json:"id"`
	UserID   *string `json:"userId"`
	Name     string  `json:"name"`
	IsSystem bool    `json:"isSystem"`
	IsActive bool    `json:"isActive"`
}

type bindingPayload struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	GroupID  *string `json:"groupId"`
	Shortcut string  `json:"shortcut"`
	Template string  `json:"template"`
	Category string  `json:"category"`
	IsActive bool    `json:"isActive"`
}

func woundsGroupID() string {
	for _, seed := range database.SystemGroups {
		if seed.Name == models.WoundsGroupName {
			return seed.ID
		}
	}
	return ""
}

func listGroups(t *testing.T, env *testutil.Env, token string) []groupPayload {
	t.Helper()
	resp := env.Request(http.MethodGet, "/api/key-binding-groups", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var groups []groupPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &groups)
	return groups
}

func TestKeyBindingGroups_StandardUserCannotCreate(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser(entitlements.TierStandard, entitlements.RoleUser)
	token := env.Token(user)

	resp := env.Request(http.MethodPost, "/api/key-binding-groups", map[string]any{"name": "Mine"}, token)
	require.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())
	payload := testutil.DecodeResponse(t, resp)
	require.False(t, payload.Success)
	require.NotNil(t, payload.Error)
	require.Contains(t, payload.Error.Message, "platinum")

	var count int64
	require.NoError(t, env.DB.Model(&models.KeyBindingGroup{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)

	var denial models.AuditLog
	require.NoError(t, env.DB.Where("action = ? AND user_id = ?", services.AuditActionAccessDenied, user.ID).First(&denial).Error)
	require.Equal(t, models.AuditResultFailure, denial.Result)

	gold := env.CreateUser(entitlements.TierGold, entitlements.RoleUser)
	resp = env.Request(http.MethodGet, "/api/key-binding-groups", nil, env.Token(gold))
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestKeyBindingGroups_PlatinumProvisioningScenario(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser(entitlements.TierPlatinum, entitlements.RoleUser)
	token := env.Token(user)

	groups := listGroups(t, env, token)
	require.NotEmpty(t, groups)
	require.Equal(t, models.WoundsGroupName, groups[0].Name)
	require.True(t, groups[0].IsSystem)

	resp := env.Request(http.MethodGet, "/api/key-bindings?groupId="+woundsGroupID(), nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var bindings []bindingPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &bindings)

	shortcuts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		shortcuts = append(shortcuts, b.Shortcut)
		require.Equal(t, "Wounds", b.Category)
		require.Equal(t, user.ID, b.UserID)
	}
	require.ElementsMatch(t, []string{"Ctrl+Shift+W", "Ctrl+Alt+D", "Ctrl+Shift+H"}, shortcuts)

	// A second visit seeds nothing new.
	listGroups(t, env, token)
	var count int64
	require.NoError(t, env.DB.Model(&models.KeyBinding{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Equal(t, int64(3), count)
}

func TestKeyBindingGroups_CreateListOrder(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser(entitlements.TierPlatinum, entitlements.RoleUser)
	token := env.Token(user)

	for _, name := range []string{"zeta", "Alpha"} {
		resp := env.Request(http.MethodPost, "/api/key-binding-groups", map[string]any{"name": name, "description": "mine"}, token)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		var created groupPayload
		testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &created)
		require.False(t, created.IsSystem)
		require.True(t, created.IsActive)
		require.NotNil(t, created.UserID)
		require.Equal(t, user.ID, *created.UserID)
	}

	groups := listGroups(t, env, token)
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	require.Equal(t, []string{"Wounds", "Assessments", "Discharge", "Alpha", "zeta"}, names)

	resp := env.Request(http.MethodPost, "/api/key-binding-groups", map[string]any{"name": ""}, token)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestKeyBindingGroups_UpdateAndOwnership(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.CreateUser(entitlements.TierPlatinum, entitlements.RoleUser)
	other := env.CreateUser(entitlements.TierPlatinum, entitlements.RoleUser)

	resp := env.Request(http.MethodPost, "/api/key-binding-groups", map[string]any{"name": "Rounds"}, env.Token(owner))
	require.Equal(t, http.StatusCreated, resp.Code)
	var group groupPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &group)

	resp = env.Request(http.MethodPut, "/api/key-binding-groups/"+group.ID, map[string]any{"name": "Night rounds", "isActive": false}, env.Token(owner))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated groupPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &updated)
	require.Equal(t, "Night rounds", updated.Name)
	require.False(t, updated.IsActive)

	// Another user's group looks absent.
	resp = env.Request(http.MethodPut, "/api/key-binding-groups/"+group.ID, map[string]any{"name": "stolen"}, env.Token(other))
	require.Equal(t, http.StatusNotFound, resp.Code)
	resp = env.Request(http.MethodDelete, "/api/key-binding-groups/"+group.ID, nil, env.Token(other))
	require.Equal(t, http.StatusNotFound, resp.Code)

	// System groups are read-only to non-admins.
	resp = env.Request(http.MethodPut, "/api/key-binding-groups/"+woundsGroupID(), map[string]any{"name": "Mine now"}, env.Token(owner))
	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Equal(t, "SYSTEM_GROUP_IMMUTABLE", testutil.DecodeResponse(t, resp).Error.Code)
	resp = env.Request(http.MethodDelete, "/api/key-binding-groups/"+woundsGroupID(), nil, env.Token(owner))
	require.Equal(t, http.StatusForbidden, resp.Code)

	var failures int64
	require.NoError(t, env.DB.Model(&models.AuditLog{}).
		Where("resource_id = ? AND result = ?", woundsGroupID(), models.AuditResultFailure).
		Count(&failures).Error)
	require.Equal(t, int64(2), failures)
}

func TestKeyBindingGroups_DeleteDetachesBindings(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser(entitlements.TierPlatinum, entitlements.RoleUser)
	token := env.Token(user)

	resp := env.Request(http.MethodPost, "/api/key-binding-groups", map[string]any{"name": "Temp"}, token)
	require.Equal(t, http.StatusCreated, resp.Code)
	var group groupPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &group)

	resp = env.Request(http.MethodPost, "/api/key-bindings", map[string]any{
		"shortcut": "Ctrl+Shift+T",
		"template": "Temperature: [value]",
		"groupId":  group.ID,
	}, token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var binding bindingPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &binding)

	resp = env.Request(http.MethodDelete, "/api/key-binding-groups/"+group.ID, nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.True(t, testutil.DecodeResponse(t, resp).Success)

	var stored models.KeyBinding
	require.NoError(t, env.DB.First(&stored, "id = ?", binding.ID).Error)
	require.Nil(t, stored.GroupID)
}

func TestKeyBindingGroups_DeleteNonexistentIsNoop(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser(entitlements.TierPlatinum, entitlements.RoleUser)

	resp := env.Request(http.MethodDelete, "/api/key-binding-groups/"+uuid.NewString(), nil, env.Token(user))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.True(t, testutil.DecodeResponse(t, resp).Success)
}
