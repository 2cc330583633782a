package repository

import (
	"context"
	"errors"

	"usermgmt/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	// Create inserts the role unless its name is taken. A taken name is
	// reported either as ErrDuplicateRoleName or by leaving role.ID zero.
	Create(ctx context.Context, role *entity.Role) error
	FindByName(ctx context.Context, name string) (*entity.Role, error)
	// Assign links a role to a user; an existing link is left untouched.
	Assign(ctx context.Context, userID, roleID uint) error
}

type roleRepository struct {
	conn conn
}

func (r *roleRepository) Create(ctx context.Context, role *entity.Role) error {
	return r.conn.run(ctx, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(role).Error
	})
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	var role entity.Role
	var found bool
	err := r.conn.run(ctx, func(db *gorm.DB) error {
		err := db.Where("name = ?", name).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) Assign(ctx context.Context, userID, roleID uint) error {
	return r.conn.run(ctx, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entity.UserRole{UserID: userID, RoleID: roleID}).Error
	})
}
