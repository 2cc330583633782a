package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"usermgmt/internal/dto"
	"usermgmt/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

const defaultRetryBackoff = 50 * time.Millisecond

// NewValidator reports fields by their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func validatePayload(validate *validator.Validate, payload any) error {
	if validate == nil {
		return nil
	}
	return validate.Struct(payload)
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, dto.MessageResponse{Message: message})
}

func writeError(c echo.Context, status int, err error) error {
	return writeMessage(c, status, err.Error())
}

// writeValidationError answers 400 with one entry per failing field, or the
// decoder's message when the body could not be read at all.
func writeValidationError(c echo.Context, err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return writeMessage(c, http.StatusBadRequest, "invalid request body")
	}
	fields := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields[fe.Field()] = fe.Tag()
	}
	return c.JSON(http.StatusBadRequest, map[string]any{"errors": fields})
}

func writeServiceError(c echo.Context, logger logrus.FieldLogger, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidOldPassword):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidMFACode):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrAccountDisabled):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmailAlreadyRegistered),
		errors.Is(err, service.ErrMFANotEnrolled),
		errors.Is(err, service.ErrMFAAlreadyEnabled):
		status = http.StatusConflict
	case errors.Is(err, service.ErrMFARequired):
		status = http.StatusPreconditionRequired
	case errors.Is(err, service.ErrMFANotConfigured):
		status = http.StatusFailedDependency
	case errors.Is(err, service.ErrUnavailable):
		if logger != nil {
			logger.WithError(err).Warn("datastore unavailable")
		}
		return writeError(c, http.StatusServiceUnavailable, service.ErrUnavailable)
	}
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.WithError(err).Error("unhandled service error")
		}
		return writeMessage(c, status, "internal server error")
	}
	return writeError(c, status, err)
}

// retryUnavailable runs fn again once when it fails with ErrUnavailable.
// Only operations that are safe to repeat go through it.
func retryUnavailable(ctx context.Context, backoff time.Duration, fn func(ctx context.Context) error) error {
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	policy := retry.WithMaxRetries(1, retry.NewConstant(backoff))
	return retry.Do(ctx, policy, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, service.ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func parseLimitOffset(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseUserID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid user id")
	}
	return uint(id), nil
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
