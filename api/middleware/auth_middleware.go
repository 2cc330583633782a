package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"usermgmt/internal/service"

	"github.com/labstack/echo/v4"
)

// PrincipalResolver turns a bearer token into the caller's identity.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*service.Principal, error)
}

type AuthMiddleware struct {
	Resolver PrincipalResolver
}

func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.Resolver == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		token := extractBearerToken(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		principal, err := m.Resolver.ResolvePrincipal(c.Request().Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnavailable) {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable").SetInternal(err)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		SetPrincipal(c, principal)
		return next(c)
	}
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
