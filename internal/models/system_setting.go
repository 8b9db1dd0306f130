package models

import "time"

// SystemSetting persists installation-wide values such as the applied seed revision.
// The key column avoids the MySQL reserved word.
type SystemSetting struct {
	Name      string    `gorm:"column:setting_key;primaryKey;size:120" json:"name"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
