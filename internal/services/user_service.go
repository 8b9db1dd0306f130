package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/models"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/logger"
)

// ErrLastAdmin prevents removing administrative access from the only active administrator.
var ErrLastAdmin = apperrors.New("USER_LAST_ADMIN", "At least one active administrator is required", http.StatusBadRequest)

// CreateUserInput captures the fields required to register an account.
type CreateUserInput struct {
	Email    string
	Name     string
	Role     entitlements.Role
	Tier     entitlements.Tier
	IsActive *bool
}

// UpdateUserInput describes mutable user fields. A nil pointer indicates no change.
type UpdateUserInput struct {
	Name     *string
	Role     *entitlements.Role
	Tier     *entitlements.Tier
	IsActive *bool
}

// UserFilters captures optional filters for listing users.
type UserFilters struct {
	Tier     *entitlements.Tier
	Role     *entitlements.Role
	IsActive *bool
	Query    string
}

// ListUsersOptions controls pagination for listing users.
type ListUsersOptions struct {
	Page     int
	PageSize int
	Filters  UserFilters
}

// UserService exposes account administration.
type UserService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, auditService *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, auditService: auditService}, nil
}

// Create registers a new account.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.create(ctx, input)
	s.auditService.Record(ctx, AuditEntry{
		Action:     AuditActionUserCreate,
		Resource:   AuditResourceUser,
		ResourceID: userRef(user),
		Metadata: map[string]any{
			"email": strings.ToLower(strings.TrimSpace(input.Email)),
			"tier":  input.Tier.String(),
			"role":  string(input.Role),
		},
	}, err)
	return user, err
}

func (s *UserService) create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	email, err := normaliseEmail(input.Email)
	if err != nil {
		return nil, err
	}

	role := entitlements.RoleUser
	if input.Role != "" {
		parsed, err := entitlements.ParseRole(string(input.Role))
		if err != nil {
			return nil, apperrors.NewBadRequest("unknown role")
		}
		role = parsed
	}

	tier := input.Tier
	if tier == 0 {
		tier = entitlements.TierStandard
	}
	if !tier.Valid() {
		return nil, apperrors.NewBadRequest("unknown subscription tier")
	}

	user := &models.User{
		Email:    email,
		Name:     strings.TrimSpace(input.Name),
		Role:     role,
		Tier:     tier,
		IsActive: true,
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUserEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}
	return user, nil
}

// GetByID fetches a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// GetByEmail fetches a user by email address, case-insensitively.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user by email: %w", err)
	}
	return &user, nil
}

// List retrieves users matching the supplied filters with pagination.
func (s *UserService) List(ctx context.Context, opts ListUsersOptions) ([]models.User, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := normalisePage(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if opts.Filters.IsActive != nil {
		query = query.Where("is_active = ?", *opts.Filters.IsActive)
	}
	if opts.Filters.Tier != nil {
		query = query.Where("tier = ?", opts.Filters.Tier.String())
	}
	if opts.Filters.Role != nil {
		query = query.Where("role = ?", string(*opts.Filters.Role))
	}
	if q := strings.TrimSpace(opts.Filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: count users: %w", err)
	}

	var users []models.User
	if err := query.
		Order("created_at DESC").
		Order("id").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: list users: %w", err)
	}

	return users, total, nil
}

// Update persists mutable attributes for an existing user.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, updates, err := s.update(ctx, id, input)
	s.auditService.Record(ctx, AuditEntry{
		Action:     AuditActionUserUpdate,
		Resource:   AuditResourceUser,
		ResourceID: id,
		Metadata:   updates,
	}, err)
	return user, err
}

func (s *UserService) update(ctx context.Context, id string, input UpdateUserInput) (*models.User, map[string]any, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil {
		role, err := entitlements.ParseRole(string(*input.Role))
		if err != nil {
			return nil, nil, apperrors.NewBadRequest("unknown role")
		}
		if role != user.Role {
			updates["role"] = string(role)
		}
	}
	if input.Tier != nil {
		if !input.Tier.Valid() {
			return nil, nil, apperrors.NewBadRequest("unknown subscription tier")
		}
		if *input.Tier != user.Tier {
			updates["tier"] = input.Tier.String()
		}
	}
	if input.IsActive != nil && *input.IsActive != user.IsActive {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) == 0 {
		return user, updates, nil
	}

	demoted := updates["role"] == string(entitlements.RoleUser)
	deactivated := input.IsActive != nil && !*input.IsActive
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if user.Role.IsAdmin() && user.IsActive && (demoted || deactivated) {
			if err := ensureAnotherAdmin(tx, user.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(user).Updates(updates).Error; err != nil {
			return fmt.Errorf("user service: update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, updates, err
	}

	reloaded, err := s.GetByID(ctx, user.ID)
	if err != nil {
		return nil, updates, err
	}
	return reloaded, updates, nil
}

// CascadeDelete removes a user and everything they own in one transaction: key bindings,
// user-owned groups and extension settings are deleted, audit rows keep their history with
// the user reference cleared. Deletion does not depend on foreign key enforcement.
func (s *UserService) CascadeDelete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	removed := map[string]int64{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.First(&user, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("user service: load user: %w", err)
		}
		if user.Role.IsAdmin() && user.IsActive {
			if err := ensureAnotherAdmin(tx, user.ID); err != nil {
				return err
			}
		}

		var ownedGroups []string
		if err := tx.Model(&models.KeyBindingGroup{}).
			Where("user_id = ? AND is_system = ?", user.ID, false).
			Pluck("id", &ownedGroups).Error; err != nil {
			return fmt.Errorf("user service: list owned groups: %w", err)
		}

		res := tx.Where("user_id = ?", user.ID).Delete(&models.KeyBinding{})
		if res.Error != nil {
			return fmt.Errorf("user service: delete key bindings: %w", res.Error)
		}
		removed["keyBindings"] = res.RowsAffected

		if len(ownedGroups) > 0 {
			if err := tx.Model(&models.KeyBinding{}).
				Where("group_id IN ?", ownedGroups).
				Update("group_id", nil).Error; err != nil {
				return fmt.Errorf("user service: detach foreign bindings: %w", err)
			}
			res = tx.Where("id IN ?", ownedGroups).Delete(&models.KeyBindingGroup{})
			if res.Error != nil {
				return fmt.Errorf("user service: delete groups: %w", res.Error)
			}
			removed["groups"] = res.RowsAffected
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.ExtensionSettings{}).Error; err != nil {
			return fmt.Errorf("user service: delete extension settings: %w", err)
		}

		if err := tx.Model(&models.AuditLog{}).
			Where("user_id = ?", user.ID).
			Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("user service: detach audit logs: %w", err)
		}

		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("user service: delete user: %w", err)
		}
		return nil
	})

	s.auditService.Record(ctx, AuditEntry{
		Action:     AuditActionUserDelete,
		Resource:   AuditResourceUser,
		ResourceID: id,
		Metadata:   map[string]any{"removed": removed},
	}, err)
	return err
}

// EnsureBootstrapAdmin creates the configured administrator when no administrator exists yet.
// It returns the created user, or nil when an administrator is already present.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, email, name string) (*models.User, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(email) == "" {
		return nil, nil
	}

	var admins int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", string(entitlements.RoleAdmin)).
		Count(&admins).Error; err != nil {
		return nil, fmt.Errorf("user service: count admins: %w", err)
	}
	if admins > 0 {
		return nil, nil
	}

	user, err := s.create(ctx, CreateUserInput{
		Email: email,
		Name:  name,
		Role:  entitlements.RoleAdmin,
		Tier:  entitlements.TierPlatinum,
	})
	if err != nil {
		return nil, err
	}

	logger.WithModule("users").Info("created bootstrap administrator", zap.String("email", user.Email))
	return user, nil
}

func ensureAnotherAdmin(tx *gorm.DB, excludeID string) error {
	var count int64
	if err := tx.Model(&models.User{}).
		Where("role = ? AND is_active = ? AND id <> ?", string(entitlements.RoleAdmin), true, excludeID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("user service: count admins: %w", err)
	}
	if count == 0 {
		return ErrLastAdmin
	}
	return nil
}

func normaliseEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.NewBadRequest("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewBadRequest("email address is invalid")
	}
	return email, nil
}

func userRef(user *models.User) string {
	if user == nil {
		return ""
	}
	return user.ID
}
