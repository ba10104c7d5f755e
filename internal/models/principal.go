package models

import (
	"errors"
	"strings"
)

// Role enumerates the upstream-verified principal roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleMonitor Role = "monitor"
	RoleStudent Role = "student"
)

// ParseRole normalizes and validates a role claim.
func ParseRole(value string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(value))); role {
	case RoleAdmin, RoleTeacher, RoleMonitor, RoleStudent:
		return role, nil
	default:
		return "", errors.New("unrecognized role: " + value)
	}
}

// Principal is the authenticated caller as verified upstream. The core
// trusts these fields; token validation happens in the middleware layer.
type Principal struct {
	ID      uint
	Role    Role
	ClassID *uint
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// SameClass reports whether the principal belongs to the given class scope.
func (p Principal) SameClass(classID *uint) bool {
	if p.ClassID == nil || classID == nil {
		return false
	}
	return *p.ClassID == *classID
}
