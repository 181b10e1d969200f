package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of global privilege levels on the platform.
// Comparisons go through the type, never raw strings, so an unknown role
// can not silently pass an allow-list.
type Role string

const (
	RoleCitizen        Role = "citizen"
	RoleVolunteer      Role = "volunteer"
	RoleASHAWorker     Role = "asha_worker"
	RoleHealthOfficial Role = "health_official"
	RoleAdmin          Role = "admin"
)

// ParseRole normalizes and validates a stored role string. The legacy value
// "user" maps to citizen.
func ParseRole(s string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(s))) {
	case RoleCitizen, Role("user"):
		return RoleCitizen, nil
	case RoleVolunteer:
		return RoleVolunteer, nil
	case RoleASHAWorker:
		return RoleASHAWorker, nil
	case RoleHealthOfficial:
		return RoleHealthOfficial, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleVolunteer, RoleASHAWorker, RoleHealthOfficial, RoleAdmin:
		return true
	}
	return false
}

// Level returns the position of r in the ascending privilege order.
// Invalid roles sit below every valid one.
func (r Role) Level() int {
	switch r {
	case RoleCitizen:
		return 1
	case RoleVolunteer:
		return 2
	case RoleASHAWorker:
		return 3
	case RoleHealthOfficial:
		return 4
	case RoleAdmin:
		return 5
	default:
		return 0
	}
}

// RoleSet is an explicit allow-set used by route configuration.
type RoleSet []Role

// Contains reports membership. Admin is NOT implicitly a member; the admin
// bypass is applied by the authorization layer, not the set.
func (s RoleSet) Contains(r Role) bool {
	for _, member := range s {
		if member == r {
			return true
		}
	}
	return false
}

// String renders the set for diagnostics in 403 responses.
func (s RoleSet) String() string {
	names := make([]string, 0, len(s))
	for _, r := range s {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}
