package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExtensionSettings holds per-user browser extension preferences and the sync watermark.
type ExtensionSettings struct {
	BaseModel

	UserID     string         `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	User       *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	IsEnabled  bool           `gorm:"not null" json:"isEnabled"`
	Settings   datatypes.JSON `json:"settings"`
	LastSyncAt *time.Time     `json:"lastSyncAt"`
}
