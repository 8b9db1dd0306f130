package models

// KeyBinding maps a keyboard chord to template text expanded by the browser extension.
// Bindings die with their user but only detach (GroupID becomes nil) when their group is deleted.
type KeyBinding struct {
	BaseModel

	UserID   string           `gorm:"type:uuid;not null;index;uniqueIndex:idx_key_bindings_scope,priority:1" json:"userId"`
	User     *User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	GroupID  *string          `gorm:"type:uuid;index;uniqueIndex:idx_key_bindings_scope,priority:2" json:"groupId"`
	Group    *KeyBindingGroup `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"-"`
	Shortcut string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_key_bindings_scope,priority:3" json:"shortcut"`
	Template string           `gorm:"type:text;not null" json:"template"`
	Category string           `gorm:"type:varchar(120);index" json:"category"`
	IsActive bool             `gorm:"not null" json:"isActive"`
}

// Ungrouped reports whether the binding belongs to no group.
func (b *KeyBinding) Ungrouped() bool {
	return b.GroupID == nil
}
