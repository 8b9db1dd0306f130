package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit results.
const (
	AuditResultSuccess = "success"
	AuditResultFailure = "failure"
)

// AuditLog is an append-only record of a mutation attempt. UserID is nulled when
// the actor is deleted so that history survives account removal.
type AuditLog struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       *string        `gorm:"type:uuid;index" json:"userId"`
	User         *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	ActorEmail   string         `json:"actorEmail"`
	Action       string         `gorm:"not null;index" json:"action"`
	Resource     string         `gorm:"index" json:"resource"`
	ResourceID   string         `gorm:"index" json:"resourceId"`
	Result       string         `gorm:"not null;index" json:"result"`
	ErrorMessage string         `gorm:"type:text" json:"errorMessage,omitempty"`
	IPAddress    string         `json:"ipAddress"`
	UserAgent    string         `json:"userAgent"`
	Metadata     datatypes.JSON `json:"metadata"`
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
