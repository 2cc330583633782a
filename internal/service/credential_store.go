package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"usermgmt/internal/entity"
	"usermgmt/internal/repository"
	"usermgmt/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

type NewUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// CredentialStore owns user records and the password hash scheme. Hashing
// and verification share a fixed number of slots so bcrypt work cannot
// occupy every CPU at once.
type CredentialStore struct {
	store  repository.Store
	hasher PasswordHasher
	slots  *semaphore.Weighted

	dummyOnce *sync.Once
	dummyHash *string
}

func NewCredentialStore(store repository.Store, hasher PasswordHasher, concurrency int) *CredentialStore {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &CredentialStore{
		store:     store,
		hasher:    hasher,
		slots:     semaphore.NewWeighted(int64(concurrency)),
		dummyOnce: &sync.Once{},
		dummyHash: new(string),
	}
}

// withStore returns a copy that reads and writes through store, typically
// an open transaction. The hashing slots stay shared.
func (c *CredentialStore) withStore(store repository.Store) *CredentialStore {
	clone := *c
	clone.store = store
	return &clone
}

func (c *CredentialStore) CreateUser(ctx context.Context, input NewUser) (*entity.User, error) {
	hash, err := c.HashPassword(ctx, input.Password)
	if err != nil {
		return nil, err
	}
	return c.insertUser(ctx, input, hash)
}

func (c *CredentialStore) insertUser(ctx context.Context, input NewUser, hash string) (*entity.User, error) {
	user := &entity.User{
		Email:         utils.CleanEmail(input.Email),
		PasswordHash:  hash,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Phone:         input.Phone,
		Active:        true,
		SecurityToken: utils.NewSecurityToken(),
	}
	if err := c.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, storeError(err)
	}
	return user, nil
}

func (c *CredentialStore) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := c.store.Users().FindByEmail(ctx, utils.CleanEmail(email))
	return user, storeError(err)
}

func (c *CredentialStore) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	user, err := c.store.Users().FindByID(ctx, id)
	return user, storeError(err)
}

// VerifyPassword never fails loudly: a malformed hash, an empty password or
// a cancelled context all read as a mismatch.
func (c *CredentialStore) VerifyPassword(ctx context.Context, plaintext string, hash string) bool {
	if hash == "" {
		return false
	}
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer c.slots.Release(1)
	return c.hasher.Verify(hash, plaintext)
}

// burnVerification spends the same effort as a real check against a hash
// that matches nothing, so unknown emails answer as slowly as known ones.
func (c *CredentialStore) burnVerification(ctx context.Context, plaintext string) {
	c.dummyOnce.Do(func() {
		if hash, err := c.hasher.Hash("not-a-real-password"); err == nil {
			*c.dummyHash = hash
		}
	})
	c.VerifyPassword(ctx, plaintext, *c.dummyHash)
}

func (c *CredentialStore) UpdatePassword(ctx context.Context, user *entity.User, newPassword string) error {
	hash, err := c.HashPassword(ctx, newPassword)
	if err != nil {
		return err
	}
	if err := c.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return storeError(err)
	}
	user.PasswordHash = hash
	return nil
}

func (c *CredentialStore) HashPassword(ctx context.Context, password string) (string, error) {
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer c.slots.Release(1)
	hash, err := c.hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password longer than 72 bytes", ErrInvalidInput)
	}
	return hash, err
}
