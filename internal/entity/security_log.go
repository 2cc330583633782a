package entity

import (
	"time"

	"gorm.io/datatypes"
)

type SecurityAction string

const (
	UserRegistered  SecurityAction = "user_registered"
	LoginSuccess    SecurityAction = "login_success"
	LoginFailed     SecurityAction = "login_failed"
	PasswordReset   SecurityAction = "password_reset"
	MFAFailed       SecurityAction = "mfa_failed"
	UserDeactivated SecurityAction = "user_deactivated"
	RoleChanged     SecurityAction = "role_changed"
	UserDeleted     SecurityAction = "user_deleted"
)

type SecurityLog struct {
	ID uint `gorm:"primaryKey"`

	UserID  *uint `gorm:"index"`
	User    *User `gorm:"constraint:OnDelete:SET NULL"`
	ActorID *uint

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
