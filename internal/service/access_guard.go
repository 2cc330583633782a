package service

// Principal is the caller identity for one request. It is resolved once and
// not refreshed, so every check within a request sees the same roles.
type Principal struct {
	UserID uint
	Email  string
	Roles  []string
}

func (p *Principal) HasRole(name string) bool {
	if p == nil {
		return false
	}
	for _, role := range p.Roles {
		if role == name {
			return true
		}
	}
	return false
}

func RequireAuthenticated(p *Principal) error {
	if p == nil || p.UserID == 0 {
		return ErrUnauthenticated
	}
	return nil
}

// RequireRole matches role names exactly; there is no hierarchy, so an
// admin without the "user" role is not a user.
func RequireRole(p *Principal, role string) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.HasRole(role) {
		return ErrForbidden
	}
	return nil
}
