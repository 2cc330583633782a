package entity

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"type:varchar(255);uniqueIndex:users_email_key;not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`

	FirstName string `gorm:"type:varchar(255)"`
	LastName  string `gorm:"type:varchar(255)"`
	Phone     string `gorm:"type:varchar(20)"`

	Active      bool `gorm:"not null;default:true"`
	ConfirmedAt *time.Time

	// SecurityToken is assigned once on creation and never rewritten.
	SecurityToken string `gorm:"type:varchar(255);uniqueIndex:users_security_token_key;not null"`

	Roles []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole reports whether the user holds a role with exactly this name.
func (u *User) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}
