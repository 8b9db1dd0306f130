package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/database"
	"github.com/charlesng35/scribekeys/internal/database/testutil"
	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/models"
)

func openServiceTestDB(t *testing.T, opts ...testutil.TestDBOption) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, append([]testutil.TestDBOption{testutil.WithSeedData()}, opts...)...)
}

func newTestAudit(t *testing.T, db *gorm.DB) *AuditService {
	t.Helper()
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	return audit
}

func createTestUser(t *testing.T, db *gorm.DB, email string, tier entitlements.Tier) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Name:     email,
		Role:     entitlements.RoleUser,
		Tier:     tier,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func woundsGroupID() string {
	return database.SystemGroups[0].ID
}

func strPtr(value string) *string {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}
