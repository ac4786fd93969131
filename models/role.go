package models

import "strings"

// Role is an authority an actor holds when acting on a protocol.
type Role string

const (
	RoleOwner        Role = "OWNER"
	RoleCoEditor     Role = "CO_EDITOR"
	RoleAdmin        Role = "ADMIN"
	RoleReviewer     Role = "REVIEWER"
	RoleVeterinarian Role = "VETERINARIAN"
	RoleChair        Role = "CHAIR"
)

// ParseRoles splits a comma separated role list, dropping blanks and unknown names.
func ParseRoles(raw string) []Role {
	parts := strings.Split(raw, ",")
	roles := make([]Role, 0, len(parts))
	for _, part := range parts {
		role := Role(strings.ToUpper(strings.TrimSpace(part)))
		switch role {
		case RoleOwner, RoleCoEditor, RoleAdmin, RoleReviewer, RoleVeterinarian, RoleChair:
			roles = append(roles, role)
		}
	}
	return roles
}

// JoinRoles is the inverse of ParseRoles.
func JoinRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, role := range roles {
		parts = append(parts, string(role))
	}
	return strings.Join(parts, ",")
}

// HasRole reports whether role appears in roles.
func HasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
