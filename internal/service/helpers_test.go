package service

import (
	"context"
	"testing"
	"time"

	"usermgmt/internal/entity"
	"usermgmt/internal/repository/memory"
	"usermgmt/internal/utils"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store       *memory.Store
	credentials *CredentialStore
	roles       *RoleRegistry
	auth        *AuthService
	admin       *AdminService
	logs        *test.Hook
}

func newFixture(t *testing.T, config AuthConfig) *fixture {
	t.Helper()

	store := memory.NewStore()
	logger, hook := test.NewNullLogger()
	credentials := NewCredentialStore(store, BcryptPasswordHasher{Cost: bcrypt.MinCost}, 4)
	roles := NewRoleRegistry(store)
	issuer := JWTSessionIssuer{Manager: &utils.JWTManager{
		Secret:     []byte("test-secret"),
		Issuer:     "test",
		SessionTTL: time.Hour,
	}}

	return &fixture{
		store:       store,
		credentials: credentials,
		roles:       roles,
		auth:        NewAuthService(store, credentials, roles, issuer, NewTOTPProvider("test"), RealClock{}, logger, config),
		admin:       NewAdminService(store, roles, logger),
		logs:        hook,
	}
}

func (f *fixture) register(t *testing.T, email, password string) *entity.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
		Phone:     "1234567890",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) signIn(t *testing.T, email, password string) *Principal {
	t.Helper()
	ctx := context.Background()
	result, err := f.auth.SignIn(ctx, SignInInput{Email: email, Password: password})
	require.NoError(t, err)
	principal, err := f.auth.ResolvePrincipal(ctx, result.Token)
	require.NoError(t, err)
	return principal
}

func (f *fixture) adminPrincipal(t *testing.T) *Principal {
	t.Helper()
	_, err := f.auth.EnsureAdmin(context.Background(), "root@example.com", "root-password")
	require.NoError(t, err)
	return f.signIn(t, "root@example.com", "root-password")
}

func (f *fixture) actions() []entity.SecurityAction {
	var actions []entity.SecurityAction
	for _, log := range f.store.Logs() {
		actions = append(actions, log.Action)
	}
	return actions
}
