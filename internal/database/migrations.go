package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/scribekeys/internal/models"
)

// SystemGroupsSeedVersion is bumped whenever the set of seeded system groups changes.
const SystemGroupsSeedVersion = 1

// SystemGroupSeed describes a key binding group provisioned for every user at migration time.
type SystemGroupSeed struct {
	ID          string
	Name        string
	Description string
}

// SystemGroups lists the seeded system groups. The Wounds group also anchors
// the sample bindings handed to platinum users on their first visit.
var SystemGroups = []SystemGroupSeed{
	{ID: "9b0f3c1e-7f4a-4a8e-9b77-0c6f5f1d2a01", Name: models.WoundsGroupName, Description: "Wound assessment and care documentation"},
	{ID: "9b0f3c1e-7f4a-4a8e-9b77-0c6f5f1d2a02", Name: "Assessments", Description: "Head-to-toe and focused assessments"},
	{ID: "9b0f3c1e-7f4a-4a8e-9b77-0c6f5f1d2a03", Name: "Discharge", Description: "Discharge teaching and summaries"},
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.KeyBindingGroup{},
		&models.KeyBinding{},
		&models.ExtensionSettings{},
		&models.AuditLog{},
		&models.SystemSetting{},
		&models.RateCounter{},
	)
}

// SeedData creates the system key binding groups once per seed revision.
// Existing rows are left untouched.
func SeedData(db *gorm.DB) error {
	ctx := context.Background()
	applied, err := SeedRevision(ctx, db, SystemGroupsSeed)
	if err != nil {
		return err
	}
	if applied >= SystemGroupsSeedVersion {
		return nil
	}

	for _, seed := range SystemGroups {
		group := models.KeyBindingGroup{
			BaseModel:   models.BaseModel{ID: seed.ID},
			Name:        seed.Name,
			Description: seed.Description,
			IsSystem:    true,
			IsActive:    true,
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&group).Error; err != nil {
			return fmt.Errorf("seed system group %q: %w", seed.Name, err)
		}
	}

	return RecordSeedRevision(ctx, db, SystemGroupsSeed, SystemGroupsSeedVersion)
}
