package middleware

import (
	"errors"
	"net/http"

	"usermgmt/internal/service"

	"github.com/labstack/echo/v4"
)

// RequireRole must run after RequireAuth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, _ := PrincipalFromContext(c)
			if err := service.RequireRole(principal, role); err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
				}
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
