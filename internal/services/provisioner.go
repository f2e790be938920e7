package services

import (
	"context"

	"github.com/ElectricBrains530/atomic-crm/internal/idp"
	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"github.com/ElectricBrains530/atomic-crm/internal/repository"
)

// Provisioner attaches the base membership and profile to a freshly created
// identity. Identity creation and provisioning are separate steps; a failure
// here after the identity exists is a partial failure, not a rollback.
type Provisioner interface {
	Provision(ctx context.Context, user *idp.User, organizationID uint64) error
}

// GormProvisioner provisions directly against the trusted store.
type GormProvisioner struct {
	members   repository.OrgMemberRepository
	employees repository.EmployeeRepository
}

// NewGormProvisioner creates a GormProvisioner.
func NewGormProvisioner(members repository.OrgMemberRepository, employees repository.EmployeeRepository) *GormProvisioner {
	return &GormProvisioner{members: members, employees: employees}
}

// Provision creates the baseline membership and profile for a new user. New
// users always start as active members; elevation and suspension are applied
// afterwards by the caller.
func (p *GormProvisioner) Provision(ctx context.Context, user *idp.User, organizationID uint64) error {
	member := &models.OrgMember{
		OrganizationID: organizationID,
		UserID:         user.ID,
		Role:           models.RoleMember,
		Status:         models.MemberStatusActive,
	}
	if err := p.members.Create(member); err != nil {
		return err
	}

	employee := &models.Employee{
		UserID:         user.ID,
		OrganizationID: organizationID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Status:         models.EmployeeStatusActive,
	}
	return p.employees.Create(employee)
}
