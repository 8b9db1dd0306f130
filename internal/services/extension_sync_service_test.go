package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/models"
)

func newSyncFixture(t *testing.T) (*ExtensionSyncService, *KeyBindingService, *models.User) {
	t.Helper()
	db := openServiceTestDB(t)
	audit := newTestAudit(t, db)
	syncSvc, err := NewExtensionSyncService(db, audit)
	require.NoError(t, err)
	bindings, err := NewKeyBindingService(db, audit)
	require.NoError(t, err)
	user := createTestUser(t, db, "sync@example.com", entitlements.TierGold)
	return syncSvc, bindings, user
}

func TestAssembleSyncExcludesInactiveBindings(t *testing.T) {
	syncSvc, bindings, user := newSyncFixture(t)

	ctx := context.Background()
	_, err := bindings.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+1", Template: "on"})
	require.NoError(t, err)
	_, err = bindings.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+2", Template: "off", IsActive: boolPtr(false)})
	require.NoError(t, err)

	snapshot, err := syncSvc.AssembleSync(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.KeyBindings, 1)
	require.Equal(t, "Ctrl+1", snapshot.KeyBindings[0].Shortcut)
	for _, binding := range snapshot.KeyBindings {
		require.True(t, binding.IsActive)
	}
	require.Equal(t, user.ID, snapshot.User.ID)
	require.Equal(t, entitlements.TierGold, snapshot.User.Tier)
	require.True(t, snapshot.User.IsActive)
	require.Empty(t, snapshot.Settings)
	require.Nil(t, snapshot.LastSync)
}

func TestAssembleSyncDoesNotWrite(t *testing.T) {
	syncSvc, _, user := newSyncFixture(t)

	_, err := syncSvc.AssembleSync(context.Background(), user.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, syncSvc.db.Model(&models.ExtensionSettings{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAssembleSyncUnknownUser(t *testing.T) {
	syncSvc, _, _ := newSyncFixture(t)

	_, err := syncSvc.AssembleSync(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = syncSvc.Sync(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRecordSyncIsMonotonic(t *testing.T) {
	syncSvc, _, user := newSyncFixture(t)

	ctx := context.Background()
	later := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	got, err := syncSvc.RecordSync(ctx, user.ID, later)
	require.NoError(t, err)
	require.True(t, later.Equal(got))

	got, err = syncSvc.RecordSync(ctx, user.ID, earlier)
	require.NoError(t, err)
	require.True(t, later.Equal(got), "watermark moved backwards to %s", got)

	snapshot, err := syncSvc.AssembleSync(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, snapshot.LastSync)
	require.True(t, later.Equal(*snapshot.LastSync))
}

func TestRecordSyncCreatesDefaultSettingsOnFirstSync(t *testing.T) {
	syncSvc, _, user := newSyncFixture(t)
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := syncSvc.RecordSync(context.Background(), user.ID, at)
	require.NoError(t, err)

	var rows []models.ExtensionSettings
	require.NoError(t, syncSvc.db.Where("user_id = ?", user.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.False(t, rows[0].IsEnabled)
	require.JSONEq(t, `{}`, string(rows[0].Settings))
	require.NotNil(t, rows[0].LastSyncAt)
	require.True(t, at.Equal(*rows[0].LastSyncAt))
}

func TestSyncReportsWatermarkAndIsNonDecreasing(t *testing.T) {
	syncSvc, _, user := newSyncFixture(t)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(time.Second)}
	syncSvc.now = func() time.Time {
		next := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return next
	}

	ctx := context.Background()
	first, err := syncSvc.Sync(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, first.LastSync)
	require.True(t, base.Equal(*first.LastSync))

	second, err := syncSvc.Sync(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, second.LastSync)
	require.False(t, second.LastSync.Before(*first.LastSync))

	var audits int64
	require.NoError(t, syncSvc.db.Model(&models.AuditLog{}).
		Where("action = ?", AuditActionExtensionSync).
		Count(&audits).Error)
	require.Equal(t, int64(2), audits)
}

func TestSyncWithRealClockIsNonDecreasing(t *testing.T) {
	syncSvc, _, user := newSyncFixture(t)

	ctx := context.Background()
	first, err := syncSvc.Sync(ctx, user.ID)
	require.NoError(t, err)
	second, err := syncSvc.Sync(ctx, user.ID)
	require.NoError(t, err)

	require.NotNil(t, first.LastSync)
	require.NotNil(t, second.LastSync)
	require.False(t, second.LastSync.Before(*first.LastSync))
}

func TestSyncStatus(t *testing.T) {
	syncSvc, bindings, user := newSyncFixture(t)

	ctx := context.Background()
	_, err := bindings.Create(ctx, user.ID, CreateKeyBindingInput{Shortcut: "Ctrl+1", Template: "on"})
	require.NoError(t, err)

	status, err := syncSvc.Status(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, status.IsEnabled)
	require.Nil(t, status.LastSync)
	require.Equal(t, int64(1), status.ActiveBindings)

	_, err = syncSvc.Sync(ctx, user.ID)
	require.NoError(t, err)

	status, err = syncSvc.Status(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, status.LastSync)
}
