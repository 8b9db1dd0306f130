package models

import (
	"github.com/charlesng35/scribekeys/internal/entitlements"
)

// User is an account holder. Role gates administration; Tier gates features.
type User struct {
	BaseModel

	Email    string            `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name     string            `gorm:"type:varchar(120)" json:"name"`
	Role     entitlements.Role `gorm:"type:varchar(20);not null;index" json:"role"`
	Tier     entitlements.Tier `gorm:"type:varchar(20);not null;index" json:"tier"`
	IsActive bool              `gorm:"not null" json:"isActive"`
}

// Subject projects the user onto the entitlement evaluator's input.
func (u *User) Subject() entitlements.Subject {
	if u == nil {
		return entitlements.Subject{}
	}
	return entitlements.Subject{
		UserID:   u.ID,
		Role:     u.Role,
		Tier:     u.Tier,
		IsActive: u.IsActive,
	}
}
