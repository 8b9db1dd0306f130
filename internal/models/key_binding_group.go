package models

import "strings"

// WoundsGroupName is the well-known system group that sorts first and receives
// sample bindings on a platinum user's first visit.
const WoundsGroupName = "Wounds"

// KeyBindingGroup is a named collection of key bindings. A nil UserID marks a
// system group, which every user can see but none can own.
type KeyBindingGroup struct {
	BaseModel

	UserID      *string `gorm:"type:uuid;index" json:"userId"`
	User        *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name        string  `gorm:"type:varchar(120);not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	IsSystem    bool    `gorm:"not null;index" json:"isSystem"`
	IsActive    bool    `gorm:"not null" json:"isActive"`
}

// VisibleTo reports whether userID may see the group.
func (g *KeyBindingGroup) VisibleTo(userID string) bool {
	if g == nil {
		return false
	}
	if g.IsSystem {
		return true
	}
	return g.UserID != nil && *g.UserID == userID
}

// OwnedBy reports whether the group belongs to userID.
func (g *KeyBindingGroup) OwnedBy(userID string) bool {
	return g != nil && !g.IsSystem && g.UserID != nil && *g.UserID == userID
}

// SortBucket orders groups: the well-known system group, other system groups, user groups.
func (g *KeyBindingGroup) SortBucket() int {
	switch {
	case g.IsSystem && strings.EqualFold(g.Name, WoundsGroupName):
		return 0
	case g.IsSystem:
		return 1
	default:
		return 2
	}
}
