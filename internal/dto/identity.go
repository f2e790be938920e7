package dto

import (
	"github.com/ElectricBrains530/atomic-crm/internal/membership"
	"github.com/ElectricBrains530/atomic-crm/internal/models"
)

// AvailableOrganization is one organization the caller may switch to, with
// the caller's role in it.
type AvailableOrganization struct {
	ID   uint64                  `json:"id"`
	Name string                  `json:"name"`
	Plan string                  `json:"plan"`
	Role models.OrganizationRole `json:"role"`
}

// Identity is the presentable identity of the caller. ID is the membership
// id; display fields come from the organization-scoped profile.
type Identity struct {
	ID                     uint64                  `json:"id"`
	FullName               string                  `json:"full_name"`
	Avatar                 *string                 `json:"avatar,omitempty"`
	ActiveOrganizationID   uint64                  `json:"active_organization_id"`
	AvailableOrganizations []AvailableOrganization `json:"available_organizations"`
}

// ToIdentity builds an Identity from the resolved memberships. A missing
// profile falls back to a placeholder name.
func ToIdentity(active *membership.Membership, all []membership.Membership) Identity {
	fullName := "Unknown"
	var avatar *string
	if active.Profile != nil {
		if name := active.Profile.FullName(); name != "" {
			fullName = name
		}
		avatar = active.Profile.Avatar
	}

	orgs := make([]AvailableOrganization, len(all))
	for i, m := range all {
		orgs[i] = AvailableOrganization{
			ID:   m.OrganizationID,
			Name: m.Organization.Name,
			Plan: m.Organization.Plan,
			Role: m.Role,
		}
	}

	return Identity{
		ID:                     active.ID,
		FullName:               fullName,
		Avatar:                 avatar,
		ActiveOrganizationID:   active.OrganizationID,
		AvailableOrganizations: orgs,
	}
}
