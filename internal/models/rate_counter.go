package models

import "time"

// RateCounter is one fixed rate-limit window for a caller and route. It is used when
// counters must be shared across instances and Redis is not configured.
type RateCounter struct {
	Key       string    `gorm:"column:counter_key;primaryKey;size:191" json:"key"`
	Hits      int64     `gorm:"not null;default:0" json:"hits"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
}
