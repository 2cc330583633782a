package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Store groups the repositories that must commit together. Repositories
// obtained from the tx argument of WithTx share one transaction.
type Store interface {
	Users() UserRepository
	Roles() RoleRepository
	MFASecrets() MFASecretRepository
	SecurityLogs() SecurityLogRepository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

const defaultTimeout = 5 * time.Second

type gormStore struct {
	conn conn
}

func NewGormStore(db *gorm.DB, timeout time.Duration) Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &gormStore{conn: conn{db: db, timeout: timeout}}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{conn: s.conn}
}

func (s *gormStore) Roles() RoleRepository {
	return &roleRepository{conn: s.conn}
}

func (s *gormStore) MFASecrets() MFASecretRepository {
	return &mfaSecretRepository{conn: s.conn}
}

func (s *gormStore) SecurityLogs() SecurityLogRepository {
	return &securityLogRepository{conn: s.conn}
}

func (s *gormStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	var fnErr error
	err := s.conn.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(ctx, &gormStore{conn: conn{db: tx, timeout: s.conn.timeout}})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return translateError(ctx, err)
}

// conn is the gorm handle shared by the repositories of one store, either
// the pool or an open transaction.
type conn struct {
	db      *gorm.DB
	timeout time.Duration
}

// run executes fn with a session bound to a bounded context and translates
// whatever it returns.
func (c conn) run(ctx context.Context, fn func(db *gorm.DB) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return translateError(callCtx, fn(c.db.WithContext(callCtx)))
}
