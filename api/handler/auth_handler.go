package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"usermgmt/api/middleware"
	"usermgmt/internal/dto"
	"usermgmt/internal/entity"
	"usermgmt/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Service      *service.AuthService
	Validate     *validator.Validate
	Logger       logrus.FieldLogger
	RetryBackoff time.Duration
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		Service:      svc,
		Validate:     validate,
		Logger:       logger,
		RetryBackoff: defaultRetryBackoff,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeValidationError(c, err)
	}
	if err := validatePayload(h.Validate, req); err != nil {
		return writeValidationError(c, err)
	}
	input := service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	if _, err := h.Service.Register(c.Request().Context(), input); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return writeMessage(c, http.StatusOK, "User registered successfully.")
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req dto.SignInRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeValidationError(c, err)
	}
	if err := validatePayload(h.Validate, req); err != nil {
		return writeValidationError(c, err)
	}
	input := service.SignInInput{
		Email:     req.Email,
		Password:  req.Password,
		OTPCode:   req.OTPCode,
		IPAddress: stringPtr(c.RealIP()),
	}

	var result *service.SignInResult
	err := retryUnavailable(c.Request().Context(), h.RetryBackoff, func(ctx context.Context) error {
		var err error
		result, err = h.Service.SignIn(ctx, input)
		return err
	})
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.SignInResponse{
		Message:   "User logged in successfully.",
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
	})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req dto.ResetPasswordRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeValidationError(c, err)
	}
	if err := validatePayload(h.Validate, req); err != nil {
		return writeValidationError(c, err)
	}
	input := service.ResetPasswordInput{
		Email:       req.Email,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
		IPAddress:   stringPtr(c.RealIP()),
	}
	if err := h.Service.ResetPassword(c.Request().Context(), input); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return writeMessage(c, http.StatusOK, "Password updated successfully.")
}

func (h *AuthHandler) Home(c echo.Context) error {
	return c.String(http.StatusOK, "Home Page")
}

func (h *AuthHandler) Me(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}

	var user *entity.User
	err := retryUnavailable(c.Request().Context(), h.RetryBackoff, func(ctx context.Context) error {
		var err error
		user, err = h.Service.CurrentUser(ctx, principal)
		return err
	})
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) EnableMFA(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	url, err := h.Service.EnableMFA(c.Request().Context(), principal)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.MFAEnableResponse{ProvisioningURL: url})
}

func (h *AuthHandler) VerifyMFA(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.MFACodeRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeValidationError(c, err)
	}
	if err := validatePayload(h.Validate, req); err != nil {
		return writeValidationError(c, err)
	}
	if err := h.Service.VerifyMFA(c.Request().Context(), principal, req.Code); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) DisableMFA(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.MFACodeRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeValidationError(c, err)
	}
	if err := validatePayload(h.Validate, req); err != nil {
		return writeValidationError(c, err)
	}
	if err := h.Service.DisableMFA(c.Request().Context(), principal, req.Code); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}
