package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/scribekeys/internal/models"
)

// SystemGroupsSeed names the revision marker for the seeded system groups.
const SystemGroupsSeed = "seed.system_groups"

var errNoDB = errors.New("database: db is nil")

// SeedRevision reports the applied revision of the named seed, or 0 when it never ran.
func SeedRevision(ctx context.Context, db *gorm.DB, seed string) (int, error) {
	if db == nil {
		return 0, errNoDB
	}

	var row models.SystemSetting
	err := db.WithContext(ctx).Take(&row, "setting_key = ?", seed).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read seed revision %q: %w", seed, err)
	}

	revision, err := strconv.Atoi(strings.TrimSpace(row.Value))
	if err != nil {
		return 0, fmt.Errorf("seed revision %q is not a number: %w", seed, err)
	}
	return revision, nil
}

// RecordSeedRevision marks the named seed as applied at revision.
func RecordSeedRevision(ctx context.Context, db *gorm.DB, seed string, revision int) error {
	if db == nil {
		return errNoDB
	}
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return errors.New("database: seed name is required")
	}
	if revision < 1 {
		return fmt.Errorf("database: seed revision must be positive, got %d", revision)
	}

	row := models.SystemSetting{Name: seed, Value: strconv.Itoa(revision)}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("record seed revision %q: %w", seed, err)
	}
	return nil
}
