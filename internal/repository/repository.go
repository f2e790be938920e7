package repository

import (
	"github.com/ElectricBrains530/atomic-crm/internal/models"
)

// OrgMemberRepository defines trusted-store access to memberships
type OrgMemberRepository interface {
	// Create creates a membership
	Create(member *models.OrgMember) error

	// ListByUserID lists a user's memberships in stable order
	// (creation time, then id)
	ListByUserID(userID string) ([]models.OrgMember, error)

	// FindByUserAndOrg finds the membership of a user in one organization
	FindByUserAndOrg(userID string, organizationID uint64) (*models.OrgMember, error)

	// UpdateRole changes the role of a user's membership in one organization
	UpdateRole(userID string, organizationID uint64, role models.OrganizationRole) error

	// UpdateStatus changes the status of a user's membership in one organization
	UpdateStatus(userID string, organizationID uint64, status models.MemberStatus) error
}

// EmployeeRepository defines trusted-store access to organization-scoped profiles
type EmployeeRepository interface {
	// Create creates an employee profile
	Create(employee *models.Employee) error

	// FindByID finds an employee by its id
	FindByID(id uint64) (*models.Employee, error)

	// FindByUserAndOrg finds the profile of a user in one organization
	FindByUserAndOrg(userID string, organizationID uint64) (*models.Employee, error)

	// UpdateFields applies a partial update and returns the updated record
	UpdateFields(id uint64, fields map[string]interface{}) (*models.Employee, error)
}

// OrganizationRepository defines trusted-store access to organizations
type OrganizationRepository interface {
	// Create creates an organization
	Create(org *models.Organization) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)
}

// InitStateRepository tracks whether initial setup has completed
type InitStateRepository interface {
	// IsInitialized reports whether the one-time setup has run
	IsInitialized() (bool, error)

	// MarkInitialized records setup completion
	MarkInitialized() error
}

// AuthUserRepository backs the local identity provider
type AuthUserRepository interface {
	// Create creates an authentication identity
	Create(user *models.AuthUser) error

	// FindByID finds an identity by id
	FindByID(id string) (*models.AuthUser, error)

	// FindByEmail finds an identity by email
	FindByEmail(email string) (*models.AuthUser, error)

	// Update saves changes to an identity
	Update(user *models.AuthUser) error
}
