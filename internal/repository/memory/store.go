// Package memory is an in-process implementation of repository.Store. It
// enforces the same uniqueness rules as the SQL schema and gives WithTx
// all-or-nothing semantics by serialising transactions and restoring a
// snapshot when fn fails.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"usermgmt/internal/entity"
	"usermgmt/internal/repository"
)

type state struct {
	users     map[uint]entity.User
	roles     map[uint]entity.Role
	userRoles map[uint]map[uint]struct{}
	secrets   map[uint]entity.MFASecret
	logs      []entity.SecurityLog

	nextUserID   uint
	nextRoleID   uint
	nextSecretID uint
	nextLogID    uint
}

func newState() *state {
	return &state{
		users:     make(map[uint]entity.User),
		roles:     make(map[uint]entity.Role),
		userRoles: make(map[uint]map[uint]struct{}),
		secrets:   make(map[uint]entity.MFASecret),
	}
}

func (s *state) clone() *state {
	c := *s
	c.users = make(map[uint]entity.User, len(s.users))
	for id, u := range s.users {
		c.users[id] = u
	}
	c.roles = make(map[uint]entity.Role, len(s.roles))
	for id, r := range s.roles {
		c.roles[id] = r
	}
	c.userRoles = make(map[uint]map[uint]struct{}, len(s.userRoles))
	for userID, set := range s.userRoles {
		inner := make(map[uint]struct{}, len(set))
		for roleID := range set {
			inner[roleID] = struct{}{}
		}
		c.userRoles[userID] = inner
	}
	c.secrets = make(map[uint]entity.MFASecret, len(s.secrets))
	for id, sec := range s.secrets {
		c.secrets[id] = sec
	}
	c.logs = append([]entity.SecurityLog(nil), s.logs...)
	return &c
}

type Store struct {
	mu    *sync.Mutex
	data  **state
	inTx  bool
	clock func() time.Time
}

func NewStore() *Store {
	data := newState()
	return &Store{mu: &sync.Mutex{}, data: &data, clock: time.Now}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) state() *state {
	return *s.data
}

func (s *Store) Users() repository.UserRepository {
	return userRepository{s}
}

func (s *Store) Roles() repository.RoleRepository {
	return roleRepository{s}
}

func (s *Store) MFASecrets() repository.MFASecretRepository {
	return mfaSecretRepository{s}
}

func (s *Store) SecurityLogs() repository.SecurityLogRepository {
	return securityLogRepository{s}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state().clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true, clock: s.clock}
	if err := fn(ctx, tx); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

// checkContext reports an expired deadline as repository.ErrUnavailable,
// matching the SQL store.
func checkContext(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return err
}

// Logs returns a copy of every security log written so far.
func (s *Store) Logs() []entity.SecurityLog {
	defer s.lock()()
	return append([]entity.SecurityLog(nil), s.state().logs...)
}

// withRoles returns a copy of u with its role links resolved, ordered by
// role id the way the SQL preload returns them.
func (st *state) withRoles(u entity.User) *entity.User {
	u.Roles = nil
	for roleID := range st.userRoles[u.ID] {
		u.Roles = append(u.Roles, st.roles[roleID])
	}
	sort.Slice(u.Roles, func(i, j int) bool { return u.Roles[i].ID < u.Roles[j].ID })
	return &u
}
