package repository

import (
	"context"
	"errors"

	"usermgmt/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SetActive(ctx context.Context, id uint, active bool) error
	List(ctx context.Context, limit, offset int) ([]entity.User, error)
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	conn conn
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.conn.run(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(user).Error
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*entity.User, error) {
	var user entity.User
	var found bool
	err := r.conn.run(ctx, func(db *gorm.DB) error {
		err := db.Preload("Roles").Where(query, arg).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.update(ctx, id, "password_hash", hash)
}

func (r *userRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.update(ctx, id, "active", active)
}

func (r *userRepository) update(ctx context.Context, id uint, column string, value any) error {
	return r.conn.run(ctx, func(db *gorm.DB) error {
		result := db.Model(&entity.User{}).Where("id = ?", id).Update(column, value)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]entity.User, error) {
	var users []entity.User
	err := r.conn.run(ctx, func(db *gorm.DB) error {
		query := db.Preload("Roles").Order("id ASC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		if offset > 0 {
			query = query.Offset(offset)
		}
		return query.Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes the user together with its role links. Callers wanting
// both statements to commit together run it inside Store.WithTx.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.conn.run(ctx, func(db *gorm.DB) error {
		if err := db.Where("user_id = ?", id).Delete(&entity.UserRole{}).Error; err != nil {
			return err
		}
		result := db.Delete(&entity.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
