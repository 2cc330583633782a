package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateEmail         = errors.New("email already exists")
	ErrDuplicateSecurityToken = errors.New("security token already exists")
	ErrDuplicateRoleName      = errors.New("role name already exists")
	ErrDuplicate              = errors.New("duplicate key")
	ErrUnavailable            = errors.New("datastore unavailable")
)

// translateError maps driver failures onto the repository sentinels. ctx is
// the per-call context so an expired deadline is recognised even when the
// driver reports a cancellation instead.
func translateError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_security_token_key":
			return ErrDuplicateSecurityToken
		case "roles_name_key":
			return ErrDuplicateRoleName
		}
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return fmt.Errorf("db error: %w", err)
}
