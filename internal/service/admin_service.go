package service

import (
	"context"
	"errors"
	"strings"

	"usermgmt/internal/entity"
	"usermgmt/internal/repository"

	"github.com/sirupsen/logrus"
)

// AdminService holds the user-management operations reserved for the admin
// role. Every method checks the caller before touching the store.
type AdminService struct {
	store  repository.Store
	roles  *RoleRegistry
	logger logrus.FieldLogger
	audit  securityAudit
}

func NewAdminService(store repository.Store, roles *RoleRegistry, logger logrus.FieldLogger) *AdminService {
	return &AdminService{
		store:  store,
		roles:  roles,
		logger: logger,
		audit:  securityAudit{store: store, logger: logger},
	}
}

func (s *AdminService) ListUsers(ctx context.Context, caller *Principal, limit, offset int) ([]entity.User, error) {
	if err := RequireRole(caller, entity.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx, limit, offset)
	if err != nil {
		return nil, storeError(err)
	}
	return users, nil
}

// Deactivate blocks future sign-ins and invalidates outstanding session
// tokens, which are checked against the active flag on every request.
func (s *AdminService) Deactivate(ctx context.Context, caller *Principal, userID uint) error {
	if err := RequireRole(caller, entity.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.Users().SetActive(ctx, userID, false); err != nil {
		return notFoundAsUser(err)
	}

	s.audit.record(ctx, auditEvent{userID: uintPtr(userID), actorID: uintPtr(caller.UserID), action: entity.UserDeactivated})
	s.logger.WithFields(logrus.Fields{"user_id": userID, "actor_id": caller.UserID}).Info("user deactivated")
	return nil
}

// ChangeRole adds roleName to the user's roles. Existing roles are kept and
// granting a role twice leaves a single link.
func (s *AdminService) ChangeRole(ctx context.Context, caller *Principal, userID uint, roleName string) error {
	if err := RequireRole(caller, entity.RoleAdmin); err != nil {
		return err
	}
	if strings.TrimSpace(roleName) == "" {
		return ErrInvalidInput
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return storeError(err)
		}
		if user == nil {
			return ErrUserNotFound
		}
		registry := s.roles.withStore(tx)
		role, err := registry.GetOrCreate(ctx, roleName)
		if err != nil {
			return err
		}
		return registry.Assign(ctx, user, role)
	})
	if err != nil {
		return storeError(err)
	}

	s.audit.record(ctx, auditEvent{
		userID:   uintPtr(userID),
		actorID:  uintPtr(caller.UserID),
		action:   entity.RoleChanged,
		metadata: map[string]any{"role": roleName},
	})
	s.logger.WithFields(logrus.Fields{"user_id": userID, "actor_id": caller.UserID, "role": roleName}).Info("role granted")
	return nil
}

// DeleteUser permanently removes the user and its role links.
func (s *AdminService) DeleteUser(ctx context.Context, caller *Principal, userID uint) error {
	if err := RequireRole(caller, entity.RoleAdmin); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return notFoundAsUser(err)
	}

	s.audit.record(ctx, auditEvent{
		actorID:  uintPtr(caller.UserID),
		action:   entity.UserDeleted,
		metadata: map[string]any{"user_id": userID},
	})
	s.logger.WithFields(logrus.Fields{"user_id": userID, "actor_id": caller.UserID}).Info("user deleted")
	return nil
}

func notFoundAsUser(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return storeError(err)
}
