package models

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
)

// Role is a user's global role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// AccessClaims is the JWT claims structure issued by the login endpoint.
// Tokens from an external identity provider are accepted as long as they carry
// the user ID in the subject claim.
type AccessClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 Role   `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AccessClaims) GetUserID() string {
	return c.Subject
}

// Principal is the authenticated caller of a request.
// Role is read from the user directory on every request, so a demoted
// admin loses access without waiting for token expiry.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin reports whether the principal has the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// ActionView is the read action checked by listings, search, filter,
// statistics, metadata and download. Mutating actions share their names
// with the activity log actions.
const ActionView = "view"

// IsMutating reports whether action changes the tree.
func IsMutating(action string) bool {
	switch action {
	case ActionCreateFolder, ActionUpload, ActionRename, ActionMove, ActionDelete:
		return true
	}
	return false
}

// IsKnownAction reports whether action can be checked by the authorization gate.
func IsKnownAction(action string) bool {
	return action == ActionView || IsMutating(action)
}

// AccessScope is the set of subtrees a principal may touch.
// Unrestricted scopes (admins) allow every path.
type AccessScope struct {
	Unrestricted bool
	Anchors      []string // team folder paths, canonical
}

// CanView reports whether path is inside an anchor or on the way down to one.
func (s *AccessScope) CanView(path string) bool {
	if s.Unrestricted {
		return true
	}
	for _, a := range s.Anchors {
		if pathutil.IsWithin(a, path) || pathutil.IsAncestor(path, a) {
			return true
		}
	}
	return false
}

// Contains reports whether path is an anchor or lies under one. Every node
// scanned from such a path is visible.
func (s *AccessScope) Contains(path string) bool {
	if s.Unrestricted {
		return true
	}
	for _, a := range s.Anchors {
		if pathutil.IsWithin(a, path) {
			return true
		}
	}
	return false
}

// ContainsStrictly reports whether path lies strictly under an anchor.
func (s *AccessScope) ContainsStrictly(path string) bool {
	if s.Unrestricted {
		return true
	}
	for _, a := range s.Anchors {
		if pathutil.IsAncestor(a, path) {
			return true
		}
	}
	return false
}
