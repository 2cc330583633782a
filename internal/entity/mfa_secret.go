package entity

import (
	"time"
)

type MFASecret struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"uniqueIndex;not null"`
	User   User `gorm:"constraint:OnDelete:CASCADE"`

	Secret    string `gorm:"type:text;not null"`
	EnabledAt *time.Time

	CreatedAt time.Time
}
