package memory

import (
	"context"
	"sort"

	"usermgmt/internal/entity"
	"usermgmt/internal/repository"
)

type userRepository struct{ s *Store }

func (r userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	defer r.s.lock()()
	st := r.s.state()
	for _, existing := range st.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.SecurityToken == user.SecurityToken {
			return repository.ErrDuplicateSecurityToken
		}
	}
	st.nextUserID++
	now := r.s.clock()
	user.ID = st.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	stored.Roles = nil
	st.users[user.ID] = stored
	return nil
}

func (r userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	defer r.s.lock()()
	st := r.s.state()
	u, ok := st.users[id]
	if !ok {
		return nil, nil
	}
	return st.withRoles(u), nil
}

func (r userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	defer r.s.lock()()
	st := r.s.state()
	for _, u := range st.users {
		if u.Email == email {
			return st.withRoles(u), nil
		}
	}
	return nil, nil
}

func (r userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.update(ctx, id, func(u *entity.User) { u.PasswordHash = hash })
}

func (r userRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.update(ctx, id, func(u *entity.User) { u.Active = active })
}

func (r userRepository) update(ctx context.Context, id uint, apply func(u *entity.User)) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	defer r.s.lock()()
	st := r.s.state()
	u, ok := st.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	apply(&u)
	u.UpdatedAt = r.s.clock()
	st.users[id] = u
	return nil
}

func (r userRepository) List(ctx context.Context, limit, offset int) ([]entity.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	defer r.s.lock()()
	st := r.s.state()
	ids := make([]uint, 0, len(st.users))
	for id := range st.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if offset > 0 {
		if offset >= len(ids) {
			ids = nil
		} else {
			ids = ids[offset:]
		}
	}
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	users := make([]entity.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, *st.withRoles(st.users[id]))
	}
	return users, nil
}

func (r userRepository) Delete(ctx context.Context, id uint) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	defer r.s.lock()()
	st := r.s.state()
	if _, ok := st.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(st.users, id)
	delete(st.userRoles, id)
	for secretID, secret := range st.secrets {
		if secret.UserID == id {
			delete(st.secrets, secretID)
		}
	}
	for i := range st.logs {
		if st.logs[i].UserID != nil && *st.logs[i].UserID == id {
			st.logs[i].UserID = nil
		}
	}
	return nil
}

type roleRepository struct{ s *Store }

func (r roleRepository) Create(ctx context.Context, role *entity.Role) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	defer r.s.lock()()
	st := r.s.state()
	for _, existing := range st.roles {
		if existing.Name == role.Name {
			return repository.ErrDuplicateRoleName
		}
	}
	st.nextRoleID++
	role.ID = st.nextRoleID
	st.roles[role.ID] = *role
	return nil
}

func (r roleRepository) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	defer r.s.lock()()
	for _, role := range r.s.state().roles {
		if role.Name == name {
			found := role
			return &found, nil
		}
	}
	return nil, nil
}

func (r roleRepository) Assign(ctx context.Context, userID, roleID uint) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	defer r.s.lock()()
	st := r.s.state()
	if _, ok := st.users[userID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := st.roles[roleID]; !ok {
		return repository.ErrNotFound
	}
	set, ok := st.userRoles[userID]
	if !ok {
		set = make(map[uint]struct{})
		st.userRoles[userID] = set
	}
	set[roleID] = struct{}{}
	return nil
}

type mfaSecretRepository struct{ s *Store }

func (r mfaSecretRepository) FindByUserID(ctx context.Context, userID uint) (*entity.MFASecret, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	defer r.s.lock()()
	for _, secret := range r.s.state().secrets {
		if secret.UserID == userID {
			found := secret
			return &found, nil
		}
	}
	return nil, nil
}

func (r mfaSecretRepository) Upsert(ctx context.Context, secret *entity.MFASecret) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	defer r.s.lock()()
	st := r.s.state()
	for id, existing := range st.secrets {
		if existing.UserID == secret.UserID {
			existing.Secret = secret.Secret
			existing.EnabledAt = secret.EnabledAt
			st.secrets[id] = existing
			secret.ID = id
			return nil
		}
	}
	st.nextSecretID++
	secret.ID = st.nextSecretID
	secret.CreatedAt = r.s.clock()
	stored := *secret
	stored.User = entity.User{}
	st.secrets[secret.ID] = stored
	return nil
}

func (r mfaSecretRepository) Disable(ctx context.Context, userID uint) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	defer r.s.lock()()
	st := r.s.state()
	for id, secret := range st.secrets {
		if secret.UserID == userID {
			delete(st.secrets, id)
		}
	}
	return nil
}

type securityLogRepository struct{ s *Store }

func (r securityLogRepository) Log(ctx context.Context, log *entity.SecurityLog) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	defer r.s.lock()()
	st := r.s.state()
	st.nextLogID++
	log.ID = st.nextLogID
	log.CreatedAt = r.s.clock()
	stored := *log
	stored.User = nil
	st.logs = append(st.logs, stored)
	return nil
}
