package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseSessionToken(t *testing.T) {
	t.Parallel()

	m := JWTManager{Secret: []byte("super-secret"), Issuer: "usermgmt", SessionTTL: time.Hour}

	token, ttl, err := m.IssueSessionToken(42, "sec-token", []string{"user", "admin"})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	claims, err := m.ParseSessionToken(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "sec-token", claims.SecurityToken)
	assert.Equal(t, []string{"user", "admin"}, claims.Roles)
}

func TestIssueSessionToken_DefaultTTL(t *testing.T) {
	t.Parallel()

	m := JWTManager{Secret: []byte("k")}
	_, ttl, err := m.IssueSessionToken(1, "s", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultSessionTTL, ttl)
}

func TestParseSessionToken_Expired(t *testing.T) {
	t.Parallel()

	m := JWTManager{Secret: []byte("k"), SessionTTL: -time.Second}
	token, _, err := m.IssueSessionToken(1, "s", nil)
	require.NoError(t, err)

	_, err = m.ParseSessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := JWTManager{Secret: []byte("right")}.IssueSessionToken(1, "s", nil)
	require.NoError(t, err)

	_, err = JWTManager{Secret: []byte("wrong")}.ParseSessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSessionToken_WrongIssuer(t *testing.T) {
	t.Parallel()

	token, _, err := JWTManager{Secret: []byte("k"), Issuer: "other"}.IssueSessionToken(1, "s", nil)
	require.NoError(t, err)

	_, err = JWTManager{Secret: []byte("k"), Issuer: "usermgmt"}.ParseSessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSessionToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := SessionClaims{
		SecurityToken: "s",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = JWTManager{Secret: []byte("k")}.ParseSessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSessionToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := JWTManager{Secret: []byte("k")}.ParseSessionToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionClaims_UserIDRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, subject := range []string{"", "0", "abc", "-1"} {
		_, err := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}.UserID()
		assert.ErrorIs(t, err, ErrInvalidToken, subject)
	}
}

func TestCleanEmailPreservesCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Alice@Example.com", CleanEmail("  Alice@Example.com \n"))
}

func TestNewSecurityTokenIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token := NewSecurityToken()
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}
