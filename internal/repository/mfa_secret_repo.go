package repository

import (
	"context"
	"errors"

	"usermgmt/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MFASecretRepository interface {
	FindByUserID(ctx context.Context, userID uint) (*entity.MFASecret, error)
	Upsert(ctx context.Context, secret *entity.MFASecret) error
	Disable(ctx context.Context, userID uint) error
}

type mfaSecretRepository struct {
	conn conn
}

func (r *mfaSecretRepository) FindByUserID(ctx context.Context, userID uint) (*entity.MFASecret, error) {
	var secret entity.MFASecret
	var found bool
	err := r.conn.run(ctx, func(db *gorm.DB) error {
		err := db.Where("user_id = ?", userID).First(&secret).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &secret, nil
}

func (r *mfaSecretRepository) Upsert(ctx context.Context, secret *entity.MFASecret) error {
	return r.conn.run(ctx, func(db *gorm.DB) error {
		return db.Omit("User").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"secret", "enabled_at"}),
			}).
			Create(secret).Error
	})
}

func (r *mfaSecretRepository) Disable(ctx context.Context, userID uint) error {
	return r.conn.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Delete(&entity.MFASecret{}).Error
	})
}
