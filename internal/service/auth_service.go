package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"usermgmt/internal/entity"
	"usermgmt/internal/repository"
	"usermgmt/internal/utils"

	"github.com/sirupsen/logrus"
)

type AuthService struct {
	store       repository.Store
	credentials *CredentialStore
	roles       *RoleRegistry
	sessions    SessionIssuer
	mfaProvider MFAProvider
	clock       Clock
	logger      logrus.FieldLogger
	audit       securityAudit
	config      AuthConfig
}

func NewAuthService(
	store repository.Store,
	credentials *CredentialStore,
	roles *RoleRegistry,
	sessions SessionIssuer,
	mfaProvider MFAProvider,
	clock Clock,
	logger logrus.FieldLogger,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		store:       store,
		credentials: credentials,
		roles:       roles,
		sessions:    sessions,
		mfaProvider: mfaProvider,
		clock:       clock,
		logger:      logger,
		audit:       securityAudit{store: store, logger: logger},
		config:      config,
	}
}

// Register creates the user and grants the default role in one transaction.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	email := utils.CleanEmail(input.Email)
	if email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	hash, err := s.credentials.HashPassword(ctx, input.Password)
	if err != nil {
		return nil, err
	}

	var user *entity.User
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		created, err := s.credentials.withStore(tx).insertUser(ctx, NewUser{
			Email:     email,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Phone:     input.Phone,
		}, hash)
		if err != nil {
			return err
		}
		if err := s.grantDefaultRole(ctx, tx, created); err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.audit.record(ctx, auditEvent{userID: uintPtr(user.ID), action: entity.UserRegistered})
	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*SignInResult, error) {
	email := utils.CleanEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.credentials.burnVerification(ctx, input.Password)
		s.audit.record(ctx, auditEvent{
			ipAddress: input.IPAddress,
			action:    entity.LoginFailed,
			metadata:  map[string]any{"email": email, "reason": "unknown_email"},
		})
		return nil, s.signInFailure(ErrUserNotFound)
	}

	if !s.credentials.VerifyPassword(ctx, input.Password, user.PasswordHash) {
		s.audit.record(ctx, auditEvent{
			userID:    uintPtr(user.ID),
			ipAddress: input.IPAddress,
			action:    entity.LoginFailed,
			metadata:  map[string]any{"reason": "wrong_password"},
		})
		return nil, s.signInFailure(ErrInvalidCredentials)
	}

	if !user.Active {
		s.audit.record(ctx, auditEvent{
			userID:    uintPtr(user.ID),
			ipAddress: input.IPAddress,
			action:    entity.LoginFailed,
			metadata:  map[string]any{"reason": "deactivated"},
		})
		return nil, s.signInFailure(ErrAccountDisabled)
	}

	if err := s.checkSecondFactor(ctx, user, input); err != nil {
		return nil, err
	}

	if len(user.Roles) == 0 {
		err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
			return s.grantDefaultRole(ctx, tx, user)
		})
		if err != nil {
			return nil, storeError(err)
		}
		s.logger.WithField("user_id", user.ID).Warn("backfilled default role on sign-in")
	}

	token, ttl, err := s.sessions.IssueSessionToken(*user)
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, auditEvent{userID: uintPtr(user.ID), ipAddress: input.IPAddress, action: entity.LoginSuccess})
	return &SignInResult{
		Token:     token,
		ExpiresIn: int64(ttl.Seconds()),
		User:      user,
	}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	email := utils.CleanEmail(input.Email)
	if email == "" || input.OldPassword == "" || strings.TrimSpace(input.NewPassword) == "" {
		return ErrInvalidInput
	}

	user, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		s.credentials.burnVerification(ctx, input.OldPassword)
		return s.signInFailure(ErrUserNotFound)
	}
	if !s.credentials.VerifyPassword(ctx, input.OldPassword, user.PasswordHash) {
		return s.signInFailure(ErrInvalidOldPassword)
	}

	if err := s.credentials.UpdatePassword(ctx, user, input.NewPassword); err != nil {
		return err
	}

	s.audit.record(ctx, auditEvent{userID: uintPtr(user.ID), ipAddress: input.IPAddress, action: entity.PasswordReset})
	s.logger.WithField("user_id", user.ID).Info("password reset")
	return nil
}

// ResolvePrincipal turns a session token into the caller's identity. The
// user row is re-read so deactivation, deletion and role changes apply to
// tokens issued before them.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*Principal, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	identity, err := s.sessions.ParseSessionToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.credentials.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, ErrUnauthenticated
	}
	if subtle.ConstantTimeCompare([]byte(user.SecurityToken), []byte(identity.SecurityToken)) != 1 {
		return nil, ErrUnauthenticated
	}

	return &Principal{
		UserID: user.ID,
		Email:  user.Email,
		Roles:  user.RoleNames(),
	}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, principal *Principal) (*entity.User, error) {
	if err := RequireAuthenticated(principal); err != nil {
		return nil, err
	}
	user, err := s.credentials.FindByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// EnsureAdmin makes sure an account with this email exists and holds the
// admin role. An existing account keeps its password.
func (s *AuthService) EnsureAdmin(ctx context.Context, email string, password string) (*entity.User, error) {
	user, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.Register(ctx, RegisterInput{Email: email, Password: password})
		if err != nil {
			return nil, err
		}
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		registry := s.roles.withStore(tx)
		role, err := registry.GetOrCreate(ctx, entity.RoleAdmin)
		if err != nil {
			return err
		}
		return registry.Assign(ctx, user, role)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

func (s *AuthService) EnableMFA(ctx context.Context, principal *Principal) (string, error) {
	if s.mfaProvider == nil {
		return "", ErrMFANotConfigured
	}
	user, err := s.CurrentUser(ctx, principal)
	if err != nil {
		return "", err
	}

	existing, err := s.store.MFASecrets().FindByUserID(ctx, user.ID)
	if err != nil {
		return "", storeError(err)
	}
	if existing != nil && existing.EnabledAt != nil {
		return "", ErrMFAAlreadyEnabled
	}

	secret, url, err := s.mfaProvider.GenerateSecret(user.Email)
	if err != nil {
		return "", err
	}
	if err := s.store.MFASecrets().Upsert(ctx, &entity.MFASecret{UserID: user.ID, Secret: secret}); err != nil {
		return "", storeError(err)
	}
	return url, nil
}

func (s *AuthService) VerifyMFA(ctx context.Context, principal *Principal, code string) error {
	if s.mfaProvider == nil {
		return ErrMFANotConfigured
	}
	if err := RequireAuthenticated(principal); err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}

	secret, err := s.store.MFASecrets().FindByUserID(ctx, principal.UserID)
	if err != nil {
		return storeError(err)
	}
	if secret == nil {
		return ErrMFANotEnrolled
	}
	now := s.now()
	if !s.mfaProvider.ValidateCode(secret.Secret, code, now) {
		return ErrInvalidMFACode
	}

	secret.EnabledAt = &now
	return storeError(s.store.MFASecrets().Upsert(ctx, secret))
}

// DisableMFA removes the second factor. A valid current code is required.
func (s *AuthService) DisableMFA(ctx context.Context, principal *Principal, code string) error {
	if s.mfaProvider == nil {
		return ErrMFANotConfigured
	}
	if err := RequireAuthenticated(principal); err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}

	secret, err := s.store.MFASecrets().FindByUserID(ctx, principal.UserID)
	if err != nil {
		return storeError(err)
	}
	if secret == nil {
		return ErrMFANotEnrolled
	}
	if !s.mfaProvider.ValidateCode(secret.Secret, code, s.now()) {
		s.audit.record(ctx, auditEvent{userID: uintPtr(principal.UserID), action: entity.MFAFailed})
		return ErrInvalidMFACode
	}
	return storeError(s.store.MFASecrets().Disable(ctx, principal.UserID))
}

func (s *AuthService) checkSecondFactor(ctx context.Context, user *entity.User, input SignInInput) error {
	if s.mfaProvider == nil {
		return nil
	}
	secret, err := s.store.MFASecrets().FindByUserID(ctx, user.ID)
	if err != nil {
		return storeError(err)
	}
	if secret == nil || secret.EnabledAt == nil {
		return nil
	}
	if strings.TrimSpace(input.OTPCode) == "" {
		return ErrMFARequired
	}
	if !s.mfaProvider.ValidateCode(secret.Secret, input.OTPCode, s.now()) {
		s.audit.record(ctx, auditEvent{userID: uintPtr(user.ID), ipAddress: input.IPAddress, action: entity.MFAFailed})
		return ErrInvalidMFACode
	}
	return nil
}

func (s *AuthService) grantDefaultRole(ctx context.Context, tx repository.Store, user *entity.User) error {
	registry := s.roles.withStore(tx)
	role, err := registry.GetOrCreate(ctx, entity.RoleUser)
	if err != nil {
		return err
	}
	return registry.Assign(ctx, user, role)
}

func (s *AuthService) signInFailure(err error) error {
	if s.config.UniformSignInErrors {
		return ErrInvalidCredentials
	}
	return err
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
