package entity

import "slices"

// Role represents the authorization level of a credential holder.
type Role string

const (
	// RoleUser is the default role for newly registered identities.
	RoleUser Role = "user"
	// RoleGuide leads tours.
	RoleGuide Role = "guide"
	// RoleLead is a lead guide.
	RoleLead Role = "lead"
	// RoleAdmin manages the application.
	RoleAdmin Role = "admin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLead, RoleAdmin:
		return true
	default:
		return false
	}
}

// OrDefault returns RoleUser when r is empty or unknown.
func (r Role) OrDefault() Role {
	if r.IsValid() {
		return r
	}

	return RoleUser
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}
