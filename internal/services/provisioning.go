package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/pkg/logger"
	"github.com/charlesng35/scribekeys/pkg/metrics"
)

// SampleBinding is a key binding handed to new platinum users inside the Wounds group.
type SampleBinding struct {
	Shortcut string
	Template string
	Category string
}

// WoundsSampleBindings are inserted the first time a platinum user lists their groups.
var WoundsSampleBindings = []SampleBinding{
	{
		Shortcut: "Ctrl+Shift+W",
		Template: "Wound assessment: Location: [location], Size: [length]cm x [width]cm x [depth]cm, Appearance: [appearance]",
		Category: models.WoundsGroupName,
	},
	{
		Shortcut: "Ctrl+Alt+D",
		Template: "Dressing applied: [dressing type]. Wound cleansed with [solution]. Patient tolerated procedure well.",
		Category: models.WoundsGroupName,
	},
	{
		Shortcut: "Ctrl+Shift+H",
		Template: "Healing progress: Wound shows [improvement/no change/deterioration] since last assessment.",
		Category: models.WoundsGroupName,
	},
}

// GroupProvisioner lazily seeds sample bindings into the Wounds system group.
type GroupProvisioner struct {
	db    *gorm.DB
	audit *AuditService
}

// NewGroupProvisioner constructs a provisioner once a database handle is supplied.
func NewGroupProvisioner(db *gorm.DB, audit *AuditService) (*GroupProvisioner, error) {
	if db == nil {
		return nil, errors.New("group provisioner: db is required")
	}
	return &GroupProvisioner{db: db, audit: audit}, nil
}

// EnsureSampleBindings inserts the Wounds sample bindings for userID when the user has
// no binding in that group yet. It returns the number of rows inserted. Inserts skip rows
// that already exist under the (user, group, shortcut) unique index, so concurrent first
// visits seed each sample exactly once.
func (p *GroupProvisioner) EnsureSampleBindings(ctx context.Context, userID string) (int, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("group provisioner: user id is required")
	}

	var (
		inserted int
		groupRef string
	)
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.KeyBindingGroup
		err := visibleGroups(tx, userID).
			Where("name = ?", models.WoundsGroupName).
			Order("is_system DESC").
			Take(&group).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("group provisioner: find wounds group: %w", err)
		}
		groupRef = group.ID

		var existing int64
		if err := tx.Model(&models.KeyBinding{}).
			Where("user_id = ? AND group_id = ?", userID, group.ID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("group provisioner: count bindings: %w", err)
		}
		if existing > 0 {
			return nil
		}

		bindings := make([]models.KeyBinding, 0, len(WoundsSampleBindings))
		for _, sample := range WoundsSampleBindings {
			gid := group.ID
			bindings = append(bindings, models.KeyBinding{
				UserID:   userID,
				GroupID:  &gid,
				Shortcut: sample.Shortcut,
				Template: sample.Template,
				Category: sample.Category,
				IsActive: true,
			})
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&bindings)
		if result.Error != nil {
			return fmt.Errorf("group provisioner: insert sample bindings: %w", result.Error)
		}
		inserted = int(result.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		metrics.ProvisionedBindings.Add(float64(inserted))
		logger.WithModule("provisioning").Info("seeded sample key bindings",
			zap.String("user_id", userID),
			zap.String("group_id", groupRef),
			zap.Int("inserted", inserted),
		)
		p.audit.Record(ctx, AuditEntry{
			Action:     AuditActionGroupProvision,
			Resource:   AuditResourceKeyBindingGroup,
			ResourceID: groupRef,
			Metadata:   map[string]any{"inserted": inserted},
		}, nil)
	}
	return inserted, nil
}
