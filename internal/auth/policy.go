package auth

import "github.com/ElectricBrains530/atomic-crm/internal/models"

// PrivilegeLevel is the coarse privilege derived from a membership role.
// Fine-grained decisions are delegated to the policy table below.
type PrivilegeLevel string

const (
	LevelUser  PrivilegeLevel = "user"
	LevelAdmin PrivilegeLevel = "admin"
)

// PrivilegeFor maps a role to its privilege level. The privileged
// user-management service carries its own copy of this mapping; the two are
// asserted to agree in tests because client-side checks are UX-only and the
// service must reach the same answer independently.
func PrivilegeFor(role models.OrganizationRole) PrivilegeLevel {
	if role == models.RoleOwner || role == models.RoleAdmin {
		return LevelAdmin
	}
	return LevelUser
}

// adminOnlyResources require the elevated level for any action.
var adminOnlyResources = map[string]bool{
	"employees":  true,
	"users":      true,
	"init_state": true,
}

// adminOnlyActions require the elevated level on any resource.
var adminOnlyActions = map[string]bool{
	"delete": true,
}

// policyAllows decides a (level, action, resource) triple.
func policyAllows(level PrivilegeLevel, action, resource string) bool {
	if level == LevelAdmin {
		return true
	}
	if adminOnlyResources[resource] {
		return false
	}
	if adminOnlyActions[action] {
		return false
	}
	return true
}
