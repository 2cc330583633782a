package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"usermgmt/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newStoreWithMock(t *testing.T, timeout time.Duration) (Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormStore(db, timeout), mock
}

func TestUserRepository_FindByEmailNotFound(t *testing.T) {
	store, mock := newStoreWithMock(t, time.Second)
	mock.ExpectQuery(`(?s)SELECT .* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	user, err := store.Users().FindByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmailDBError(t *testing.T) {
	store, mock := newStoreWithMock(t, time.Second)
	mock.ExpectQuery(`(?s)SELECT .* FROM "users"`).WillReturnError(errors.New("db down"))

	_, err := store.Users().FindByEmail(context.Background(), "alice@example.com")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	store, mock := newStoreWithMock(t, time.Second)
	mock.ExpectQuery(`(?s)INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := store.Users().Create(context.Background(), &entity.User{Email: "alice@example.com", SecurityToken: "tok", Active: true})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_SetActiveMissingUser(t *testing.T) {
	store, mock := newStoreWithMock(t, time.Second)
	mock.ExpectExec(`(?s)UPDATE "users" SET .*"active"`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Users().SetActive(context.Background(), 42, false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteRemovesRoleLinksFirst(t *testing.T) {
	store, mock := newStoreWithMock(t, time.Second)
	mock.ExpectExec(`(?s)DELETE FROM "user_roles" WHERE user_id = \$1`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`(?s)DELETE FROM "users" WHERE "users"."id" = \$1`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Users().Delete(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteMissingUser(t *testing.T) {
	store, mock := newStoreWithMock(t, time.Second)
	mock.ExpectExec(`(?s)DELETE FROM "user_roles"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)DELETE FROM "users"`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.Users().Delete(context.Background(), 7), ErrNotFound)
}

func TestConn_SlowQueryIsUnavailable(t *testing.T) {
	store, mock := newStoreWithMock(t, 20*time.Millisecond)
	mock.ExpectQuery(`(?s)SELECT .* FROM "roles"`).
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := store.Roles().FindByName(context.Background(), "admin")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGormStore_WithTxRollsBackOnError(t *testing.T) {
	store, mock := newStoreWithMock(t, time.Second)
	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("abort")
	err := store.WithTx(context.Background(), func(ctx context.Context, tx Store) error {
		return sentinel
	})
	assert.Same(t, sentinel, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_WithTxCommits(t *testing.T) {
	store, mock := newStoreWithMock(t, time.Second)
	mock.ExpectBegin()
	mock.ExpectExec(`(?s)UPDATE "users" SET .*"password_hash"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(ctx context.Context, tx Store) error {
		return tx.Users().UpdatePassword(ctx, 1, "hash")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
