package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/models"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
)

func TestKeyBindingServiceCreateAndListByCategory(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewKeyBindingService(db, newTestAudit(t, db))
	require.NoError(t, err)
	user := createTestUser(t, db, "writer@example.com", entitlements.TierStandard)

	ctx := context.Background()
	inputs := []CreateKeyBindingInput{
		{Shortcut: "Ctrl+B", Template: "b", Category: "Vitals"},
		{Shortcut: "Ctrl+A", Template: "a", Category: "Vitals"},
		{Shortcut: "Ctrl+Z", Template: "z", Category: "Assessment"},
	}
	for _, input := range inputs {
		_, err := svc.Create(ctx, user.ID, input)
		require.NoError(t, err)
	}

	bindings, err := svc.List(ctx, user.ID, ListKeyBindingsOptions{Order: OrderByCategory})
	require.NoError(t, err)
	require.Len(t, bindings, 3)
	require.Equal(t, "Ctrl+Z", bindings[0].Shortcut)
	require.Equal(t, "Ctrl+A", bindings[1].Shortcut)
	require.Equal(t, "Ctrl+B", bindings[2].Shortcut)
	for _, binding := range bindings {
		require.True(t, binding.IsActive)
		require.Nil(t, binding.GroupID)
	}

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ? AND result = ?", AuditActionKeyBindingCreate, models.AuditResultSuccess).
		Count(&audits).Error)
	require.Equal(t, int64(3), audits)
}

func TestKeyBindingServiceRejectsInvalidInput(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewKeyBindingService(db, newTestAudit(t, db))
	require.NoError(t, err)
	user := createTestUser(t, db, "invalid@example.com", entitlements.TierStandard)

	ctx := context.Background()
	_, err = svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl + ", Template: "x"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+K", Template: "  "})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	var failures int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("result = ?", models.AuditResultFailure).
		Count(&failures).Error)
	require.Equal(t, int64(2), failures)
}

func TestKeyBindingServiceGroupValidation(t *testing.T) {
	db := openServiceTestDB(t)
	groups, err := NewKeyBindingGroupService(db, nil)
	require.NoError(t, err)
	svc, err := NewKeyBindingService(db, nil)
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner@example.com", entitlements.TierPlatinum)
	other := createTestUser(t, db, "other@example.com", entitlements.TierPlatinum)

	ctx := context.Background()
	privateGroup, err := groups.Create(ctx, owner.ID, CreateGroupInput{Name: "Private"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, other.ID, CreateKeyBindingInput{Shortcut: "Ctrl+P", Template: "x", GroupID: &privateGroup.ID})
	require.ErrorIs(t, err, ErrKeyBindingGroupInvalid)

	_, err = svc.Create(ctx, other.ID, CreateKeyBindingInput{Shortcut: "Ctrl+P", Template: "x", GroupID: strPtr("missing")})
	require.ErrorIs(t, err, ErrKeyBindingGroupInvalid)

	system := woundsGroupID()
	binding, err := svc.Create(ctx, other.ID, CreateKeyBindingInput{Shortcut: "Ctrl+P", Template: "x", GroupID: &system})
	require.NoError(t, err)
	require.Equal(t, system, *binding.GroupID)

	_, err = svc.Update(ctx, binding.ID, other.ID, UpdateKeyBindingInput{GroupID: &privateGroup.ID})
	require.ErrorIs(t, err, ErrKeyBindingGroupInvalid)
}

func TestKeyBindingServiceDuplicateShortcutConflicts(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewKeyBindingService(db, nil)
	require.NoError(t, err)
	user := createTestUser(t, db, "dupe@example.com", entitlements.TierStandard)

	ctx := context.Background()
	_, err = svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+D", Template: "one"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+D", Template: "two"})
	require.ErrorIs(t, err, ErrKeyBindingConflict)

	system := woundsGroupID()
	_, err = svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+D", Template: "grouped", GroupID: &system})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+D", Template: "grouped again", GroupID: &system})
	require.ErrorIs(t, err, ErrKeyBindingConflict)

	other := createTestUser(t, db, "other-dupe@example.com", entitlements.TierStandard)
	_, err = svc.Create(ctx, other.ID, CreateKeyBindingInput{Shortcut: "Ctrl+D", Template: "mine"})
	require.NoError(t, err)
}

func TestKeyBindingServiceUpdateAndClearGroup(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewKeyBindingService(db, nil)
	require.NoError(t, err)
	user := createTestUser(t, db, "update@example.com", entitlements.TierStandard)

	ctx := context.Background()
	system := woundsGroupID()
	binding, err := svc.Create(ctx, user.ID, CreateKeyBindingInput{
		Shortcut: "Ctrl+U",
		Template: "before",
		Category: "Old",
		GroupID:  &system,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, binding.ID, user.ID, UpdateKeyBindingInput{
		Template:   strPtr("after"),
		IsActive:   boolPtr(false),
		ClearGroup: true,
	})
	require.NoError(t, err)
	require.Equal(t, "after", updated.Template)
	require.Equal(t, "Old", updated.Category)
	require.False(t, updated.IsActive)
	require.Nil(t, updated.GroupID)

	_, err = svc.Update(ctx, "missing", user.ID, UpdateKeyBindingInput{Template: strPtr("x")})
	require.ErrorIs(t, err, ErrKeyBindingNotFound)
}

func TestKeyBindingServiceDelete(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewKeyBindingService(db, nil)
	require.NoError(t, err)
	user := createTestUser(t, db, "delete@example.com", entitlements.TierStandard)

	ctx := context.Background()
	binding, err := svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+X", Template: "gone"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, binding.ID))
	_, err = svc.Get(ctx, binding.ID)
	require.ErrorIs(t, err, ErrKeyBindingNotFound)

	require.ErrorIs(t, svc.Delete(ctx, binding.ID), ErrKeyBindingNotFound)
}

func TestKeyBindingServiceListFilters(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewKeyBindingService(db, nil)
	require.NoError(t, err)
	user := createTestUser(t, db, "filters@example.com", entitlements.TierStandard)

	ctx := context.Background()
	system := woundsGroupID()
	_, err = svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+1", Template: "grouped", GroupID: &system})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+2", Template: "loose"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+3", Template: "off", IsActive: boolPtr(false)})
	require.NoError(t, err)

	grouped, err := svc.List(ctx, user.ID, ListKeyBindingsOptions{GroupID: system})
	require.NoError(t, err)
	require.Len(t, grouped, 1)

	ungrouped, err := svc.List(ctx, user.ID, ListKeyBindingsOptions{Ungrouped: true})
	require.NoError(t, err)
	require.Len(t, ungrouped, 2)

	active, err := svc.List(ctx, user.ID, ListKeyBindingsOptions{ActiveOnly: true, Order: OrderByRecent})
	require.NoError(t, err)
	require.Len(t, active, 2)
}
