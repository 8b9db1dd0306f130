package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/pkg/metrics"
)

// SyncUser is the slice of the user record the extension needs to gate features locally.
type SyncUser struct {
	ID       string            `json:"id"`
	Tier     entitlements.Tier `json:"tier"`
	IsActive bool              `json:"isActive"`
}

// SyncSnapshot is the point-in-time payload pulled by the browser extension.
type SyncSnapshot struct {
	User        SyncUser            `json:"user"`
	KeyBindings []models.KeyBinding `json:"keyBindings"`
	Settings    map[string]any      `json:"settings"`
	LastSync    *time.Time          `json:"lastSync"`
}

// SyncStatus summarises the extension state for the settings page.
type SyncStatus struct {
	IsEnabled      bool       `json:"isEnabled"`
	LastSync       *time.Time `json:"lastSync"`
	ActiveBindings int64      `json:"activeBindings"`
}

// ExtensionSyncService assembles extension snapshots and tracks the per-user sync watermark.
type ExtensionSyncService struct {
	db    *gorm.DB
	audit *AuditService
	now   func() time.Time
}

// NewExtensionSyncService constructs the sync service once a database handle is supplied.
func NewExtensionSyncService(db *gorm.DB, audit *AuditService) (*ExtensionSyncService, error) {
	if db == nil {
		return nil, errors.New("extension sync service: db is required")
	}
	return &ExtensionSyncService{db: db, audit: audit, now: time.Now}, nil
}

// AssembleSync builds the snapshot for userID without modifying any state. Bindings and
// settings are read concurrently; only active bindings are included.
func (s *ExtensionSyncService) AssembleSync(ctx context.Context, userID string) (*SyncSnapshot, error) {
	ctx = ensureContext(ctx)

	user, err := loadSyncUser(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	var (
		bindings []models.KeyBinding
		settings *models.ExtensionSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bindings, err = listBindings(s.db.WithContext(gctx), user.ID, ListKeyBindingsOptions{
			Order:      OrderByRecent,
			ActiveOnly: true,
		})
		return err
	})
	g.Go(func() error {
		var err error
		settings, _, err = loadExtensionSettings(s.db.WithContext(gctx), user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildSnapshot(user, bindings, settings), nil
}

// RecordSync advances the sync watermark of userID to at, creating a default settings
// row when none exists. The stored watermark never moves backwards; the effective value is returned.
func (s *ExtensionSyncService) RecordSync(ctx context.Context, userID string, at time.Time) (time.Time, error) {
	ctx = ensureContext(ctx)

	var watermark time.Time
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		watermark, err = recordWatermark(tx, userID, at)
		return err
	})
	if err != nil {
		return time.Time{}, err
	}
	return watermark, nil
}

// Sync records the watermark and assembles the snapshot in one transaction, so the
// response reports the watermark it just wrote.
func (s *ExtensionSyncService) Sync(ctx context.Context, userID string) (*SyncSnapshot, error) {
	ctx = ensureContext(ctx)

	var snapshot *SyncSnapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadSyncUser(tx, userID)
		if err != nil {
			return err
		}
		if _, err := recordWatermark(tx, user.ID, s.now()); err != nil {
			return err
		}

		bindings, err := listBindings(tx, user.ID, ListKeyBindingsOptions{
			Order:      OrderByRecent,
			ActiveOnly: true,
		})
		if err != nil {
			return err
		}
		settings, _, err := loadExtensionSettings(tx, user.ID)
		if err != nil {
			return err
		}

		snapshot = buildSnapshot(user, bindings, settings)
		return nil
	})

	result := models.AuditResultSuccess
	if err != nil {
		result = models.AuditResultFailure
	}
	metrics.ExtensionSyncs.WithLabelValues(result).Inc()

	var metadata map[string]any
	if snapshot != nil {
		metadata = map[string]any{"keyBindings": len(snapshot.KeyBindings)}
	}
	s.audit.Record(ctx, AuditEntry{
		Action:     AuditActionExtensionSync,
		Resource:   AuditResourceExtensionSettings,
		ResourceID: strings.TrimSpace(userID),
		Metadata:   metadata,
	}, err)

	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Status reports whether the extension is enabled, the last sync time, and how many bindings it would receive.
func (s *ExtensionSyncService) Status(ctx context.Context, userID string) (*SyncStatus, error) {
	ctx = ensureContext(ctx)

	user, err := loadSyncUser(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	status := &SyncStatus{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.KeyBinding{}).
			Where("user_id = ? AND is_active = ?", user.ID, true).
			Count(&status.ActiveBindings).Error
	})
	g.Go(func() error {
		settings, found, err := loadExtensionSettings(s.db.WithContext(gctx), user.ID)
		if err != nil || !found {
			return err
		}
		status.IsEnabled = settings.IsEnabled
		status.LastSync = settings.LastSyncAt
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extension sync service: status: %w", err)
	}
	return status, nil
}

func loadSyncUser(db *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	err := db.First(&user, "id = ?", strings.TrimSpace(userID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("extension sync service: load user: %w", err)
	}
	return &user, nil
}

func recordWatermark(tx *gorm.DB, userID string, at time.Time) (time.Time, error) {
	at = at.UTC()

	seed := models.ExtensionSettings{
		UserID:     userID,
		IsEnabled:  false,
		Settings:   []byte("{}"),
		LastSyncAt: &at,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return time.Time{}, fmt.Errorf("extension sync service: ensure settings: %w", err)
	}

	if err := tx.Model(&models.ExtensionSettings{}).
		Where("user_id = ? AND (last_sync_at IS NULL OR last_sync_at < ?)", userID, at).
		Update("last_sync_at", at).Error; err != nil {
		return time.Time{}, fmt.Errorf("extension sync service: record watermark: %w", err)
	}

	stored, _, err := loadExtensionSettings(tx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if stored == nil || stored.LastSyncAt == nil {
		return at, nil
	}
	return *stored.LastSyncAt, nil
}

func buildSnapshot(user *models.User, bindings []models.KeyBinding, settings *models.ExtensionSettings) *SyncSnapshot {
	if bindings == nil {
		bindings = []models.KeyBinding{}
	}
	snapshot := &SyncSnapshot{
		User: SyncUser{
			ID:       user.ID,
			Tier:     user.Tier,
			IsActive: user.IsActive,
		},
		KeyBindings: bindings,
		Settings:    map[string]any{},
	}
	if settings != nil {
		snapshot.Settings = DecodeSettings(settings.Settings)
		snapshot.LastSync = settings.LastSyncAt
	}
	return snapshot
}
