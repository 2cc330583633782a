package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"usermgmt/internal/dto"
	"usermgmt/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteServiceError_Status(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusBadRequest},
		{service.ErrInvalidOldPassword, http.StatusBadRequest},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{service.ErrInvalidMFACode, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrAccountDisabled, http.StatusForbidden},
		{service.ErrUserNotFound, http.StatusNotFound},
		{service.ErrEmailAlreadyRegistered, http.StatusConflict},
		{service.ErrMFAAlreadyEnabled, http.StatusConflict},
		{service.ErrMFANotEnrolled, http.StatusConflict},
		{service.ErrMFARequired, http.StatusPreconditionRequired},
		{service.ErrMFANotConfigured, http.StatusFailedDependency},
		{fmt.Errorf("%w: timeout", service.ErrUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	e := echo.New()
	logger, _ := test.NewNullLogger()
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, writeServiceError(c, logger, tc.err))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	e := echo.New()
	logger, hook := test.NewNullLogger()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, writeServiceError(c, logger, errors.New("pq: relation users does not exist")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation")
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Data["error"].(error).Error(), "relation")
}

func TestWriteValidationError_ReportsJSONFieldNames(t *testing.T) {
	validate := NewValidator()
	err := validate.Struct(dto.RegisterRequest{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, writeValidationError(c, err))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":{"email":"email","password":"min"}}`, rec.Body.String())
}

func TestRetryUnavailable(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := retryUnavailable(ctx, time.Millisecond, func(context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("%w: timeout", service.ErrUnavailable)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = retryUnavailable(ctx, time.Millisecond, func(context.Context) error {
		calls++
		return service.ErrUnavailable
	})
	assert.ErrorIs(t, err, service.ErrUnavailable)
	assert.Equal(t, 2, calls)

	calls = 0
	err = retryUnavailable(ctx, time.Millisecond, func(context.Context) error {
		calls++
		return service.ErrForbidden
	})
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.Equal(t, 1, calls)
}
