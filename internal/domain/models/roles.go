// internal/domain/models/roles.go
package models

// Account roles.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RolePilgrim   = "pilgrim"
)

// AllRoles lists every role an account can hold, in display order.
var AllRoles = []string{RolePilgrim, RoleModerator, RoleAdmin}

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
