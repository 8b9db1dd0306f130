package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/models"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
)

const maxGroupNameLength = 120

// KeyBindingGroupService manages key binding groups and their visibility rules.
type KeyBindingGroupService struct {
	db    *gorm.DB
	audit *AuditService
}

// CreateGroupInput captures the caller supplied fields of a new group.
type CreateGroupInput struct {
	Name        string
	Description string
}

// UpdateGroupInput describes mutable group fields. A nil pointer indicates no change.
type UpdateGroupInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// NewKeyBindingGroupService constructs a group service once a database handle is supplied.
func NewKeyBindingGroupService(db *gorm.DB, audit *AuditService) (*KeyBindingGroupService, error) {
	if db == nil {
		return nil, errors.New("key binding group service: db is required")
	}
	return &KeyBindingGroupService{db: db, audit: audit}, nil
}

// List returns the groups visible to userID: the user's own groups plus every system group.
// The Wounds system group comes first, then the remaining system groups, then user groups,
// each bucket ordered by name.
func (s *KeyBindingGroupService) List(ctx context.Context, userID string) ([]models.KeyBindingGroup, error) {
	ctx = ensureContext(ctx)

	var groups []models.KeyBindingGroup
	if err := visibleGroups(s.db.WithContext(ctx), userID).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("key binding group service: list groups: %w", err)
	}

	sortGroups(groups)
	return groups, nil
}

// Get loads a single group by id.
func (s *KeyBindingGroupService) Get(ctx context.Context, id string) (*models.KeyBindingGroup, error) {
	ctx = ensureContext(ctx)
	return loadGroup(s.db.WithContext(ctx), id)
}

// Create stores a user-owned group. Callers cannot create system groups.
func (s *KeyBindingGroupService) Create(ctx context.Context, userID string, input CreateGroupInput) (*models.KeyBindingGroup, error) {
	ctx = ensureContext(ctx)

	group, err := s.create(ctx, userID, input)
	s.audit.Record(ctx, AuditEntry{
		Action:     AuditActionGroupCreate,
		Resource:   AuditResourceKeyBindingGroup,
		ResourceID: groupID(group),
		Metadata:   map[string]any{"name": strings.TrimSpace(input.Name)},
	}, err)
	return group, err
}

func (s *KeyBindingGroupService) create(ctx context.Context, userID string, input CreateGroupInput) (*models.KeyBindingGroup, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}
	name, err := normaliseGroupName(input.Name)
	if err != nil {
		return nil, err
	}

	owner := userID
	group := &models.KeyBindingGroup{
		UserID:      &owner,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsSystem:    false,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, fmt.Errorf("key binding group service: create group: %w", err)
	}
	return group, nil
}

// Update modifies only the supplied fields of a group.
func (s *KeyBindingGroupService) Update(ctx context.Context, id string, input UpdateGroupInput) (*models.KeyBindingGroup, error) {
	ctx = ensureContext(ctx)

	group, updates, err := s.update(ctx, id, input)
	s.audit.Record(ctx, AuditEntry{
		Action:     AuditActionGroupUpdate,
		Resource:   AuditResourceKeyBindingGroup,
		ResourceID: id,
		Metadata:   updates,
	}, err)
	return group, err
}

func (s *KeyBindingGroupService) update(ctx context.Context, id string, input UpdateGroupInput) (*models.KeyBindingGroup, map[string]any, error) {
	group, err := loadGroup(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name, err := normaliseGroupName(*input.Name)
		if err != nil {
			return nil, nil, err
		}
		if name != group.Name {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) == 0 {
		return group, updates, nil
	}

	if err := s.db.WithContext(ctx).Model(group).Updates(updates).Error; err != nil {
		return nil, updates, fmt.Errorf("key binding group service: update group: %w", err)
	}

	reloaded, err := loadGroup(s.db.WithContext(ctx), group.ID)
	if err != nil {
		return nil, updates, err
	}
	return reloaded, updates, nil
}

// DetachAndDelete removes a group while keeping its bindings: in one transaction every
// binding in the group is detached (group_id set to NULL) and then the group row is deleted.
// Deleting an id that does not exist is a no-op.
func (s *KeyBindingGroupService) DetachAndDelete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var detached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.KeyBinding{}).
			Where("group_id = ?", id).
			Update("group_id", nil)
		if result.Error != nil {
			return fmt.Errorf("key binding group service: detach bindings: %w", result.Error)
		}
		detached = result.RowsAffected

		if err := tx.Where("id = ?", id).Delete(&models.KeyBindingGroup{}).Error; err != nil {
			return fmt.Errorf("key binding group service: delete group: %w", err)
		}
		return nil
	})

	s.audit.Record(ctx, AuditEntry{
		Action:     AuditActionGroupDelete,
		Resource:   AuditResourceKeyBindingGroup,
		ResourceID: id,
		Metadata:   map[string]any{"detachedBindings": detached},
	}, err)
	return err
}

func visibleGroups(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&models.KeyBindingGroup{}).
		Where("user_id = ? OR is_system = ?", userID, true)
}

func loadGroup(db *gorm.DB, id string) (*models.KeyBindingGroup, error) {
	var group models.KeyBindingGroup
	err := db.First(&group, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrKeyBindingGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("key binding group service: load group: %w", err)
	}
	return &group, nil
}

func sortGroups(groups []models.KeyBindingGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		bi, bj := groups[i].SortBucket(), groups[j].SortBucket()
		if bi != bj {
			return bi < bj
		}
		ni, nj := strings.ToLower(groups[i].Name), strings.ToLower(groups[j].Name)
		if ni != nj {
			return ni < nj
		}
		return groups[i].ID < groups[j].ID
	})
}

func normaliseGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewBadRequest("group name is required")
	}
	if len([]rune(name)) > maxGroupNameLength {
		return "", apperrors.NewBadRequest(fmt.Sprintf("group name must be at most %d characters", maxGroupNameLength))
	}
	return name, nil
}

func groupID(group *models.KeyBindingGroup) string {
	if group == nil {
		return ""
	}
	return group.ID
}
