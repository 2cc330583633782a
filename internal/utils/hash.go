package utils

import (
	"strings"

	"github.com/google/uuid"
)

// CleanEmail trims surrounding whitespace. Case is preserved: two addresses
// differing only in case are distinct accounts.
func CleanEmail(email string) string {
	return strings.TrimSpace(email)
}

func NewSecurityToken() string {
	return uuid.NewString()
}
