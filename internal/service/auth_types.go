package service

import (
	"time"

	"usermgmt/internal/entity"

	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	// UniformSignInErrors reports every sign-in failure as
	// ErrInvalidCredentials so responses do not reveal which emails exist.
	UniformSignInErrors bool
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type SignInInput struct {
	Email     string
	Password  string
	OTPCode   string
	IPAddress *string
}

type SignInResult struct {
	Token     string
	ExpiresIn int64
	User      *entity.User
}

type ResetPasswordInput struct {
	Email       string
	OldPassword string
	NewPassword string
	IPAddress   *string
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type SessionIssuer interface {
	IssueSessionToken(user entity.User) (string, time.Duration, error)
	ParseSessionToken(token string) (SessionIdentity, error)
}

// SessionIdentity is what a verified session token asserts about its holder.
type SessionIdentity struct {
	UserID        uint
	SecurityToken string
}

type MFAProvider interface {
	GenerateSecret(accountName string) (secret string, url string, err error)
	ValidateCode(secret string, code string, at time.Time) bool
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
