package routes

import (
	"usermgmt/api/handler"
	"usermgmt/api/middleware"
	"usermgmt/internal/entity"

	"github.com/labstack/echo/v4"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Admin          *handler.AdminHandler
	AuthMiddleware middleware.AuthMiddleware
}

func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, adminHandler *handler.AdminHandler, authMiddleware middleware.AuthMiddleware) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Admin:          adminHandler,
		AuthMiddleware: authMiddleware,
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.POST("/register", r.Auth.Register)
	e.POST("/signin", r.Auth.SignIn)
	e.POST("/reset_password", r.Auth.ResetPassword)

	e.GET("/", r.Auth.Home, r.AuthMiddleware.RequireAuth)
	e.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)
	e.POST("/mfa/enable", r.Auth.EnableMFA, r.AuthMiddleware.RequireAuth)
	e.POST("/mfa/verify", r.Auth.VerifyMFA, r.AuthMiddleware.RequireAuth)
	e.POST("/mfa/disable", r.Auth.DisableMFA, r.AuthMiddleware.RequireAuth)

	admin := e.Group("/admin", r.AuthMiddleware.RequireAuth, middleware.RequireRole(entity.RoleAdmin))
	admin.GET("/users", r.Admin.ListUsers)
	admin.POST("/deactivate/:userId", r.Admin.Deactivate)
	admin.POST("/change_role/:userId/:roleName", r.Admin.ChangeRole)
	admin.DELETE("/delete_user/:userId", r.Admin.DeleteUser)
}
