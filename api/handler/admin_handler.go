package handler

import (
	"context"
	"net/http"
	"time"

	"usermgmt/api/middleware"
	"usermgmt/internal/dto"
	"usermgmt/internal/entity"
	"usermgmt/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	Service      *service.AdminService
	Logger       logrus.FieldLogger
	RetryBackoff time.Duration
}

func NewAdminHandler(svc *service.AdminService, logger logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{Service: svc, Logger: logger, RetryBackoff: defaultRetryBackoff}
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	caller, _ := middleware.PrincipalFromContext(c)
	limit, offset := parseLimitOffset(c)

	var users []entity.User
	err := retryUnavailable(c.Request().Context(), h.RetryBackoff, func(ctx context.Context) error {
		var err error
		users, err = h.Service.ListUsers(ctx, caller, limit, offset)
		return err
	})
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponsesFromEntities(users))
}

func (h *AdminHandler) Deactivate(c echo.Context) error {
	caller, _ := middleware.PrincipalFromContext(c)
	userID, err := parseUserID(c)
	if err != nil {
		return writeMessage(c, http.StatusNotFound, "User not found.")
	}
	err = retryUnavailable(c.Request().Context(), h.RetryBackoff, func(ctx context.Context) error {
		return h.Service.Deactivate(ctx, caller, userID)
	})
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return writeMessage(c, http.StatusOK, "User deactivated successfully.")
}

func (h *AdminHandler) ChangeRole(c echo.Context) error {
	caller, _ := middleware.PrincipalFromContext(c)
	userID, err := parseUserID(c)
	if err != nil {
		return writeMessage(c, http.StatusNotFound, "User not found.")
	}
	roleName := c.Param("roleName")
	err = retryUnavailable(c.Request().Context(), h.RetryBackoff, func(ctx context.Context) error {
		return h.Service.ChangeRole(ctx, caller, userID, roleName)
	})
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return writeMessage(c, http.StatusOK, "User role updated successfully.")
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	caller, _ := middleware.PrincipalFromContext(c)
	userID, err := parseUserID(c)
	if err != nil {
		return writeMessage(c, http.StatusNotFound, "User not found.")
	}
	if err := h.Service.DeleteUser(c.Request().Context(), caller, userID); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return writeMessage(c, http.StatusOK, "User deleted successfully.")
}
