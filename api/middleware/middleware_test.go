package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"usermgmt/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	principal *service.Principal
	err       error
	token     string
}

func (s *stubResolver) ResolvePrincipal(_ context.Context, token string) (*service.Principal, error) {
	s.token = token
	return s.principal, s.err
}

func serve(t *testing.T, header string, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	return rec, handler(e.NewContext(req, rec))
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func TestRequireAuth(t *testing.T) {
	alice := &service.Principal{UserID: 1, Email: "alice@example.com", Roles: []string{"user"}}

	t.Run("stores principal", func(t *testing.T) {
		resolver := &stubResolver{principal: alice}
		m := AuthMiddleware{Resolver: resolver}
		var seen *service.Principal
		_, err := serve(t, "Bearer abc.def", m.RequireAuth(func(c echo.Context) error {
			seen, _ = PrincipalFromContext(c)
			return nil
		}))
		require.NoError(t, err)
		assert.Equal(t, alice, seen)
		assert.Equal(t, "abc.def", resolver.token)
	})

	tests := []struct {
		name     string
		header   string
		resolver PrincipalResolver
		want     int
	}{
		{"missing header", "", &stubResolver{principal: alice}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", &stubResolver{principal: alice}, http.StatusUnauthorized},
		{"rejected token", "Bearer abc", &stubResolver{err: service.ErrUnauthenticated}, http.StatusUnauthorized},
		{"store down", "Bearer abc", &stubResolver{err: service.ErrUnavailable}, http.StatusServiceUnavailable},
		{"no resolver", "Bearer abc", nil, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := AuthMiddleware{Resolver: tc.resolver}
			_, err := serve(t, tc.header, m.RequireAuth(func(echo.Context) error {
				t.Fatal("handler must not run")
				return nil
			}))
			assert.Equal(t, tc.want, httpStatus(err))
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name      string
		principal *service.Principal
		want      int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"plain user", &service.Principal{UserID: 2, Roles: []string{"user"}}, http.StatusForbidden},
		{"admin", &service.Principal{UserID: 1, Roles: []string{"user", "admin"}}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if tc.principal != nil {
				SetPrincipal(c, tc.principal)
			}
			called := false
			err := RequireRole("admin")(func(echo.Context) error {
				called = true
				return nil
			})(c)
			assert.Equal(t, tc.want, httpStatus(err))
			assert.Equal(t, tc.want == 0, called)
		})
	}
}
