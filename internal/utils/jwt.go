package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const defaultSessionTTL = 24 * time.Hour

type JWTManager struct {
	Secret     []byte
	Issuer     string
	SessionTTL time.Duration
}

// SessionClaims carry the principal's identity. Roles are informational;
// authorization always re-reads them from the datastore.
type SessionClaims struct {
	SecurityToken string   `json:"sid"`
	Roles         []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric id stored in the subject claim.
func (c SessionClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

func (m JWTManager) IssueSessionToken(userID uint, securityToken string, roles []string) (string, time.Duration, error) {
	ttl := m.SessionTTL
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	now := time.Now()
	claims := SessionClaims{
		SecurityToken: securityToken,
		Roles:         roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.Secret)
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

func (m JWTManager) ParseSessionToken(tokenString string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		return m.Secret, nil
	}, options...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.SecurityToken == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
