package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/scribekeys/internal/models"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
)

const maxSettingsBytes = 64 << 10

// ExtensionSettingsService stores the per-user browser extension preferences.
type ExtensionSettingsService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewExtensionSettingsService constructs the service once a database handle is supplied.
func NewExtensionSettingsService(db *gorm.DB, audit *AuditService) (*ExtensionSettingsService, error) {
	if db == nil {
		return nil, errors.New("extension settings service: db is required")
	}
	return &ExtensionSettingsService{db: db, audit: audit}, nil
}

// Get returns the stored settings for userID. found is false when the user never saved any.
func (s *ExtensionSettingsService) Get(ctx context.Context, userID string) (*models.ExtensionSettings, bool, error) {
	ctx = ensureContext(ctx)
	return loadExtensionSettings(s.db.WithContext(ctx), userID)
}

// Upsert creates or replaces the settings row for userID. The sync watermark is preserved.
func (s *ExtensionSettingsService) Upsert(ctx context.Context, userID string, isEnabled bool, settings map[string]any) (*models.ExtensionSettings, error) {
	ctx = ensureContext(ctx)

	record, err := s.upsert(ctx, userID, isEnabled, settings)
	s.audit.Record(ctx, AuditEntry{
		Action:     AuditActionExtensionSettingsSave,
		Resource:   AuditResourceExtensionSettings,
		ResourceID: strings.TrimSpace(userID),
		Metadata:   map[string]any{"isEnabled": isEnabled},
	}, err)
	return record, err
}

func (s *ExtensionSettingsService) upsert(ctx context.Context, userID string, isEnabled bool, settings map[string]any) (*models.ExtensionSettings, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	payload, err := encodeSettings(settings)
	if err != nil {
		return nil, err
	}

	record := models.ExtensionSettings{
		UserID:    userID,
		IsEnabled: isEnabled,
		Settings:  payload,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_enabled", "settings", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("extension settings service: upsert settings: %w", err)
	}

	stored, _, err := loadExtensionSettings(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// DecodeSettings unmarshals the stored JSON settings into a map, returning an empty map for null values.
func DecodeSettings(raw datatypes.JSON) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

func encodeSettings(settings map[string]any) (datatypes.JSON, error) {
	if settings == nil {
		settings = map[string]any{}
	}
	encoded, err := json.Marshal(settings)
	if err != nil {
		return nil, apperrors.NewBadRequest("settings must be a JSON object")
	}
	if len(encoded) > maxSettingsBytes {
		return nil, apperrors.NewBadRequest("settings payload is too large")
	}
	return datatypes.JSON(encoded), nil
}

func loadExtensionSettings(db *gorm.DB, userID string) (*models.ExtensionSettings, bool, error) {
	var record models.ExtensionSettings
	err := db.Where("user_id = ?", strings.TrimSpace(userID)).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("extension settings service: load settings: %w", err)
	}
	return &record, true, nil
}
