package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"usermgmt/internal/entity"
	"usermgmt/internal/repository"
)

// RoleRegistry resolves role names to rows, creating them on first use.
type RoleRegistry struct {
	store repository.Store
}

func NewRoleRegistry(store repository.Store) *RoleRegistry {
	return &RoleRegistry{store: store}
}

func (r *RoleRegistry) withStore(store repository.Store) *RoleRegistry {
	return &RoleRegistry{store: store}
}

// GetOrCreate relies on the unique index on roles.name: the insert either
// wins or loses to a concurrent one, and the loser re-reads the winner's row.
func (r *RoleRegistry) GetOrCreate(ctx context.Context, name string) (*entity.Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	roles := r.store.Roles()

	role, err := roles.FindByName(ctx, name)
	if err != nil {
		return nil, storeError(err)
	}
	if role != nil {
		return role, nil
	}

	candidate := &entity.Role{Name: name}
	err = roles.Create(ctx, candidate)
	if err == nil && candidate.ID != 0 {
		return candidate, nil
	}
	if err != nil && !errors.Is(err, repository.ErrDuplicateRoleName) {
		return nil, storeError(err)
	}

	role, err = roles.FindByName(ctx, name)
	if err != nil {
		return nil, storeError(err)
	}
	if role == nil {
		return nil, fmt.Errorf("role %q missing after conflicting insert", name)
	}
	return role, nil
}

func (r *RoleRegistry) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	role, err := r.store.Roles().FindByName(ctx, name)
	return role, storeError(err)
}

// Assign is a no-op when the user already holds the role.
func (r *RoleRegistry) Assign(ctx context.Context, user *entity.User, role *entity.Role) error {
	if user.HasRole(role.Name) {
		return nil
	}
	if err := r.store.Roles().Assign(ctx, user.ID, role.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return storeError(err)
	}
	user.Roles = append(user.Roles, *role)
	return nil
}
