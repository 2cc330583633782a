package middleware

import (
	"usermgmt/internal/service"

	"github.com/labstack/echo/v4"
)

const contextPrincipalKey = "auth_principal"

func SetPrincipal(c echo.Context, principal *service.Principal) {
	c.Set(contextPrincipalKey, principal)
}

func PrincipalFromContext(c echo.Context) (*service.Principal, bool) {
	principal, ok := c.Get(contextPrincipalKey).(*service.Principal)
	return principal, ok && principal != nil
}
