package models

import "time"

type OrganizationRole string

const (
	RoleOwner  OrganizationRole = "owner"
	RoleAdmin  OrganizationRole = "admin"
	RoleMember OrganizationRole = "member"
)

// Valid reports whether r is one of the closed role set.
func (r OrganizationRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusDisabled MemberStatus = "disabled"
)

// OrgMember pairs a user with an organization. A user has at most one
// membership per organization.
type OrgMember struct {
	ID             uint64           `gorm:"primarykey" json:"id"`
	OrganizationID uint64           `gorm:"not null;uniqueIndex:idx_org_members_org_user" json:"organization_id"`
	UserID         string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_org_members_org_user" json:"user_id"`
	Role           OrganizationRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status         MemberStatus     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
