package repository

import (
	"context"

	"usermgmt/internal/entity"

	"gorm.io/gorm"
)

type SecurityLogRepository interface {
	Log(ctx context.Context, log *entity.SecurityLog) error
}

type securityLogRepository struct {
	conn conn
}

func (r *securityLogRepository) Log(ctx context.Context, log *entity.SecurityLog) error {
	return r.conn.run(ctx, func(db *gorm.DB) error {
		return db.Omit("User").Create(log).Error
	})
}
