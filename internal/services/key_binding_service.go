package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/models"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/validator"
)

// KeyBindingOrder selects the ordering of List results.
type KeyBindingOrder int

const (
	// OrderByCategory sorts by category then shortcut, as shown in the editor.
	OrderByCategory KeyBindingOrder = iota
	// OrderByRecent sorts by last update, newest first, as shipped to the extension.
	OrderByRecent
)

const maxTemplateLength = 10000

// KeyBindingService manages CRUD operations for key bindings.
type KeyBindingService struct {
	db    *gorm.DB
	audit *AuditService
}

// ListKeyBindingsOptions controls how bindings are filtered and ordered.
type ListKeyBindingsOptions struct {
	Order      KeyBindingOrder
	GroupID    string
	Ungrouped  bool
	ActiveOnly bool
}

// CreateKeyBindingInput captures required fields when creating a binding.
type CreateKeyBindingInput struct {
	Shortcut string
	Template string
	Category string
	GroupID  *string
	IsActive *bool
}

// UpdateKeyBindingInput describes mutable binding fields. A nil pointer indicates no change;
// ClearGroup detaches the binding from its group.
type UpdateKeyBindingInput struct {
	Shortcut   *string
	Template   *string
	Category   *string
	GroupID    *string
	ClearGroup bool
	IsActive   *bool
}

// NewKeyBindingService constructs a key binding service once a database handle is supplied.
func NewKeyBindingService(db *gorm.DB, audit *AuditService) (*KeyBindingService, error) {
	if db == nil {
		return nil, errors.New("key binding service: db is required")
	}
	return &KeyBindingService{db: db, audit: audit}, nil
}

// List returns the bindings owned by userID.
func (s *KeyBindingService) List(ctx context.Context, userID string, opts ListKeyBindingsOptions) ([]models.KeyBinding, error) {
	ctx = ensureContext(ctx)

	bindings, err := listBindings(s.db.WithContext(ctx), userID, opts)
	if err != nil {
		return nil, err
	}
	return bindings, nil
}

// Get loads a binding by id.
func (s *KeyBindingService) Get(ctx context.Context, id string) (*models.KeyBinding, error) {
	ctx = ensureContext(ctx)

	var binding models.KeyBinding
	err := s.db.WithContext(ctx).First(&binding, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrKeyBindingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("key binding service: load binding: %w", err)
	}
	return &binding, nil
}

// Create stores a new binding owned by userID.
func (s *KeyBindingService) Create(ctx context.Context, userID string, input CreateKeyBindingInput) (*models.KeyBinding, error) {
	ctx = ensureContext(ctx)

	binding, err := s.create(ctx, userID, input)
	s.audit.Record(ctx, AuditEntry{
		Action:     AuditActionKeyBindingCreate,
		Resource:   AuditResourceKeyBinding,
		ResourceID: bindingID(binding),
		Metadata:   map[string]any{"shortcut": strings.TrimSpace(input.Shortcut)},
	}, err)
	return binding, err
}

func (s *KeyBindingService) create(ctx context.Context, userID string, input CreateKeyBindingInput) (*models.KeyBinding, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	shortcut, err := normaliseShortcut(input.Shortcut)
	if err != nil {
		return nil, err
	}
	template, err := normaliseTemplate(input.Template)
	if err != nil {
		return nil, err
	}

	binding := &models.KeyBinding{
		UserID:   userID,
		Shortcut: shortcut,
		Template: template,
		Category: strings.TrimSpace(input.Category),
		IsActive: true,
	}
	if input.IsActive != nil {
		binding.IsActive = *input.IsActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groupID, err := resolveBindingGroup(tx, userID, input.GroupID)
		if err != nil {
			return err
		}
		binding.GroupID = groupID

		if err := ensureShortcutAvailable(tx, binding); err != nil {
			return err
		}

		if err := tx.Create(binding).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrKeyBindingConflict
			}
			return fmt.Errorf("key binding service: create binding: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return binding, nil
}

// Update modifies the supplied fields of a binding. The target group, if changed,
// must be owned by userID or be a system group. An empty userID scopes the group
// check to the binding's owner.
func (s *KeyBindingService) Update(ctx context.Context, id, userID string, input UpdateKeyBindingInput) (*models.KeyBinding, error) {
	ctx = ensureContext(ctx)

	binding, updates, err := s.update(ctx, id, userID, input)
	s.audit.Record(ctx, AuditEntry{
		Action:     AuditActionKeyBindingUpdate,
		Resource:   AuditResourceKeyBinding,
		ResourceID: id,
		Metadata:   updates,
	}, err)
	return binding, err
}

func (s *KeyBindingService) update(ctx context.Context, id, userID string, input UpdateKeyBindingInput) (*models.KeyBinding, map[string]any, error) {
	binding, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	ownerID := strings.TrimSpace(userID)
	if ownerID == "" {
		ownerID = binding.UserID
	}

	updates := map[string]any{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := *binding

		if input.Shortcut != nil {
			shortcut, err := normaliseShortcut(*input.Shortcut)
			if err != nil {
				return err
			}
			if shortcut != binding.Shortcut {
				updates["shortcut"] = shortcut
				candidate.Shortcut = shortcut
			}
		}
		if input.Template != nil {
			template, err := normaliseTemplate(*input.Template)
			if err != nil {
				return err
			}
			updates["template"] = template
		}
		if input.Category != nil {
			updates["category"] = strings.TrimSpace(*input.Category)
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}

		switch {
		case input.ClearGroup:
			if binding.GroupID != nil {
				updates["group_id"] = nil
				candidate.GroupID = nil
			}
		case input.GroupID != nil:
			groupID, err := resolveBindingGroup(tx, ownerID, input.GroupID)
			if err != nil {
				return err
			}
			if !sameGroup(groupID, binding.GroupID) {
				updates["group_id"] = groupID
				candidate.GroupID = groupID
			}
		}

		if len(updates) == 0 {
			return nil
		}

		_, shortcutChanged := updates["shortcut"]
		_, groupChanged := updates["group_id"]
		if shortcutChanged || groupChanged {
			if err := ensureShortcutAvailable(tx, &candidate); err != nil {
				return err
			}
		}

		if err := tx.Model(binding).Updates(updates).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrKeyBindingConflict
			}
			return fmt.Errorf("key binding service: update binding: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, updates, err
	}

	if len(updates) == 0 {
		return binding, updates, nil
	}
	reloaded, err := s.Get(ctx, binding.ID)
	if err != nil {
		return nil, updates, err
	}
	return reloaded, updates, nil
}

// Delete hard-deletes a binding.
func (s *KeyBindingService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Delete(&models.KeyBinding{})
	err := result.Error
	if err != nil {
		err = fmt.Errorf("key binding service: delete binding: %w", err)
	} else if result.RowsAffected == 0 {
		err = ErrKeyBindingNotFound
	}

	s.audit.Record(ctx, AuditEntry{
		Action:     AuditActionKeyBindingDelete,
		Resource:   AuditResourceKeyBinding,
		ResourceID: id,
	}, err)
	return err
}

func listBindings(db *gorm.DB, userID string, opts ListKeyBindingsOptions) ([]models.KeyBinding, error) {
	query := db.Model(&models.KeyBinding{}).Where("user_id = ?", userID)

	switch {
	case opts.Ungrouped:
		query = query.Where("group_id IS NULL")
	case strings.TrimSpace(opts.GroupID) != "":
		query = query.Where("group_id = ?", strings.TrimSpace(opts.GroupID))
	}
	if opts.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	switch opts.Order {
	case OrderByRecent:
		query = query.Order("updated_at DESC").Order("id")
	default:
		query = query.Order("LOWER(category)").Order("shortcut").Order("id")
	}

	var bindings []models.KeyBinding
	if err := query.Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("key binding service: list bindings: %w", err)
	}
	return bindings, nil
}

// resolveBindingGroup validates that groupID exists and is either owned by userID or a system group.
func resolveBindingGroup(tx *gorm.DB, userID string, groupID *string) (*string, error) {
	if groupID == nil {
		return nil, nil
	}
	id := strings.TrimSpace(*groupID)
	if id == "" {
		return nil, nil
	}

	group, err := loadGroup(tx, id)
	if errors.Is(err, ErrKeyBindingGroupNotFound) {
		return nil, ErrKeyBindingGroupInvalid
	}
	if err != nil {
		return nil, err
	}
	if !group.VisibleTo(userID) {
		return nil, ErrKeyBindingGroupInvalid
	}
	return &group.ID, nil
}

// ensureShortcutAvailable rejects a shortcut already bound in the same scope. Ungrouped
// bindings are checked here because the unique index treats NULL group ids as distinct.
func ensureShortcutAvailable(tx *gorm.DB, binding *models.KeyBinding) error {
	query := tx.Model(&models.KeyBinding{}).
		Where("user_id = ? AND shortcut = ?", binding.UserID, binding.Shortcut)
	if binding.GroupID == nil {
		query = query.Where("group_id IS NULL")
	} else {
		query = query.Where("group_id = ?", *binding.GroupID)
	}
	if binding.ID != "" {
		query = query.Where("id <> ?", binding.ID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("key binding service: check shortcut: %w", err)
	}
	if count > 0 {
		return ErrKeyBindingConflict
	}
	return nil
}

func normaliseShortcut(shortcut string) (string, error) {
	shortcut = strings.TrimSpace(shortcut)
	if !validator.IsShortcut(shortcut) {
		return "", apperrors.NewBadRequest("shortcut must be a key combination such as Ctrl+Shift+W")
	}
	return shortcut, nil
}

func normaliseTemplate(template string) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", apperrors.NewBadRequest("template is required")
	}
	if len(template) > maxTemplateLength {
		return "", apperrors.NewBadRequest(fmt.Sprintf("template must be at most %d characters", maxTemplateLength))
	}
	return template, nil
}

func sameGroup(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func bindingID(binding *models.KeyBinding) string {
	if binding == nil {
		return ""
	}
	return binding.ID
}
