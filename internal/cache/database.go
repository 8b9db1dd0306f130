package cache

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/scribekeys/internal/models"
)

// DatabaseCounter keeps windows in the rate_counters table so every instance sharing
// the database sees the same counts.
type DatabaseCounter struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseCounter returns nil when db is nil.
func NewDatabaseCounter(db *gorm.DB) *DatabaseCounter {
	if db == nil {
		return nil
	}
	return &DatabaseCounter{db: db, now: time.Now}
}

// Hit bumps an open window in place or replaces a closed one with a fresh window.
func (d *DatabaseCounter) Hit(ctx context.Context, key string, window time.Duration) (Window, error) {
	if d == nil || d.db == nil {
		return Window{}, errNilCounter
	}
	window = windowOrDefault(window)
	now := d.now().UTC()

	var row models.RateCounter
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bumped := tx.Model(&models.RateCounter{}).
			Where("counter_key = ? AND expires_at > ?", key, now).
			UpdateColumn("hits", gorm.Expr("hits + 1"))
		if bumped.Error != nil {
			return bumped.Error
		}

		if bumped.RowsAffected == 0 {
			fresh := models.RateCounter{Key: key, Hits: 1, ExpiresAt: now.Add(window)}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "counter_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"hits", "expires_at"}),
			}).Create(&fresh).Error
			if err != nil {
				return err
			}
		}

		return tx.Take(&row, "counter_key = ?", key).Error
	})
	if err != nil {
		return Window{}, fmt.Errorf("cache: hit %q: %w", key, err)
	}

	return Window{Hits: row.Hits, ResetIn: row.ExpiresAt.Sub(now)}, nil
}

// PurgeExpired deletes closed windows and reports how many were removed.
func PurgeExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errNilCounter
	}
	result := db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RateCounter{})
	if result.Error != nil {
		return 0, fmt.Errorf("cache: purge expired counters: %w", result.Error)
	}
	return result.RowsAffected, nil
}
