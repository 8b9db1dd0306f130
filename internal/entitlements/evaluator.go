package entitlements

import (
	"fmt"

	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
)

// Subject is the authenticated caller an entitlement decision is made for.
type Subject struct {
	UserID   string
	Role     Role
	Tier     Tier
	IsActive bool
}

// GroupManagementTier is the only tier allowed to manage key binding groups.
const GroupManagementTier = TierPlatinum

// CanManageGroups reports whether the subject may list or mutate key binding groups.
func CanManageGroups(subject Subject) bool {
	return subject.Tier == GroupManagementTier
}

// CanAccessToolVariant reports whether the subject's tier ranks at or above toolTier.
func CanAccessToolVariant(subject Subject, toolTier Tier) bool {
	return subject.Tier.AtLeast(toolTier)
}

// IsAdmin reports whether the subject may use cross-user administrative endpoints.
func IsAdmin(subject Subject) bool {
	return subject.Role.IsAdmin()
}

// RequireGroupManagement returns a Forbidden error unless CanManageGroups holds.
func RequireGroupManagement(subject Subject) error {
	if CanManageGroups(subject) {
		return nil
	}
	return apperrors.NewForbidden("Key binding groups require a platinum subscription")
}

// RequireToolVariant returns a Forbidden error unless CanAccessToolVariant holds.
func RequireToolVariant(subject Subject, toolTier Tier) error {
	if CanAccessToolVariant(subject, toolTier) {
		return nil
	}
	return apperrors.NewForbidden(fmt.Sprintf("This tool requires a %s subscription or higher", toolTier))
}

// RequireAdmin returns a Forbidden error unless the subject is an administrator.
func RequireAdmin(subject Subject) error {
	if IsAdmin(subject) {
		return nil
	}
	return apperrors.NewForbidden("Administrator access required")
}
