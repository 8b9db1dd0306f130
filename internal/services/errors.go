package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
)

var (
	// ErrKeyBindingNotFound indicates the requested key binding does not exist.
	ErrKeyBindingNotFound = apperrors.New("KEY_BINDING_NOT_FOUND", "Key binding not found", http.StatusNotFound)
	// ErrKeyBindingConflict indicates the shortcut is already bound in the same group.
	ErrKeyBindingConflict = apperrors.New("KEY_BINDING_CONFLICT", "Shortcut is already bound in this group", http.StatusConflict)
	// ErrKeyBindingGroupNotFound indicates the requested group does not exist.
	ErrKeyBindingGroupNotFound = apperrors.New("KEY_BINDING_GROUP_NOT_FOUND", "Key binding group not found", http.StatusNotFound)
	// ErrKeyBindingGroupInvalid indicates a binding references a group the caller cannot use.
	ErrKeyBindingGroupInvalid = apperrors.New("KEY_BINDING_GROUP_INVALID", "Key binding group is not available", http.StatusBadRequest)
	// ErrSystemGroupImmutable indicates a non-admin attempted to change a system group.
	ErrSystemGroupImmutable = apperrors.New("SYSTEM_GROUP_IMMUTABLE", "System key binding groups cannot be modified", http.StatusForbidden)
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrUserEmailTaken indicates another account already uses the email address.
	ErrUserEmailTaken = apperrors.New("USER_EMAIL_TAKEN", "Email address is already registered", http.StatusConflict)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate")
}
