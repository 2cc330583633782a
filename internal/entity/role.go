package entity

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Role struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(80);uniqueIndex:roles_name_key;not null"`
	Description string `gorm:"type:varchar(255)"`
}

type UserRole struct {
	UserID uint `gorm:"primaryKey"`
	RoleID uint `gorm:"primaryKey"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
