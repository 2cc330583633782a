package service

import (
	"errors"
	"fmt"

	"usermgmt/internal/repository"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidOldPassword     = errors.New("old password is incorrect")
	ErrAccountDisabled        = errors.New("account is deactivated")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrForbidden              = errors.New("forbidden")
	ErrUnavailable            = errors.New("service temporarily unavailable")
	ErrMFARequired            = errors.New("mfa code required")
	ErrInvalidMFACode         = errors.New("invalid mfa code")
	ErrMFANotConfigured       = errors.New("mfa not configured")
	ErrMFANotEnrolled         = errors.New("mfa not enrolled")
	ErrMFAAlreadyEnabled      = errors.New("mfa already enabled")
)

// storeError lifts datastore outages into ErrUnavailable and leaves every
// other error untouched.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrUnavailable) && !errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
