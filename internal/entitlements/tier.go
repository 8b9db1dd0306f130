package entitlements

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Tier is a subscription level. The zero value is invalid; ranks start at 1 so
// that comparisons against an unset tier always fail closed.
type Tier int

const (
	TierStandard Tier = iota + 1
	TierGold
	TierPlatinum
)

// Tiers lists every known tier in ascending rank order.
var Tiers = []Tier{TierStandard, TierGold, TierPlatinum}

// ParseTier converts a stored or client-supplied name into a Tier.
func ParseTier(value string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "standard":
		return TierStandard, nil
	case "gold":
		return TierGold, nil
	case "platinum":
		return TierPlatinum, nil
	default:
		return 0, fmt.Errorf("entitlements: unknown tier %q", value)
	}
}

// String returns the canonical lower-case tier name.
func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierGold:
		return "gold"
	case TierPlatinum:
		return "platinum"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Rank returns the ordinal of the tier, or 0 when the tier is unknown.
func (t Tier) Rank() int {
	switch t {
	case TierStandard, TierGold, TierPlatinum:
		return int(t)
	default:
		return 0
	}
}

// Valid reports whether the tier is one of the declared constants.
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

// AtLeast reports whether t ranks at or above required. Unknown tiers never qualify.
func (t Tier) AtLeast(required Tier) bool {
	if !t.Valid() || !required.Valid() {
		return false
	}
	return t.Rank() >= required.Rank()
}

// MarshalText implements encoding.TextMarshaler so tiers render as names in JSON.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("entitlements: cannot marshal invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the tier by name.
func (t Tier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("entitlements: cannot store invalid tier %d", int(t))
	}
	return t.String(), nil
}

// Scan reads a tier stored by name.
func (t *Tier) Scan(value any) error {
	switch typed := value.(type) {
	case string:
		return t.UnmarshalText([]byte(typed))
	case []byte:
		return t.UnmarshalText(typed)
	case nil:
		*t = 0
		return nil
	default:
		return fmt.Errorf("entitlements: unsupported tier type %T", value)
	}
}

// Role is orthogonal to Tier: it gates cross-user administration only.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole converts a name into a Role.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("entitlements: unknown role %q", value)
	}
}

// IsAdmin reports whether the role grants administrative access.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
