package domain

import (
	"fmt"
	"strings"
)

// Role enumerates the account roles known to the help desk.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Roles lists every role; policy tables are checked against it for completeness.
var Roles = []Role{RoleStudent, RoleAdmin}

// ParseRole maps a wire value to a Role. An empty value defaults to student.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleStudent:
		return RoleStudent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Identity is the caller resolved from a verified credential for one request.
type Identity struct {
	UserID string `json:"id"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
