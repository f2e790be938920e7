package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ElectricBrains530/atomic-crm/internal/idp"
	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"github.com/ElectricBrains530/atomic-crm/internal/repository"
	"github.com/ElectricBrains530/atomic-crm/internal/utils"
)

var (
	// ErrUnauthorized is returned when the caller's token is missing,
	// invalid, or belongs to a user with no memberships.
	ErrUnauthorized = errors.New("caller is not authenticated")

	// ErrForbidden is returned when the caller is authenticated but not
	// allowed to perform the operation on the target.
	ErrForbidden = errors.New("caller is not allowed to perform this operation")

	// ErrTargetNotFound is returned when the target employee does not exist.
	ErrTargetNotFound = errors.New("target employee not found")
)

// PartialFailureError marks an operation that changed some state before
// failing. The stage names the step that failed so operators can reconcile.
type PartialFailureError struct {
	Stage string
	Err   error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure at %s: %v", e.Stage, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Caller is the verified identity of the requester plus the membership the
// operation runs under.
type Caller struct {
	UserID     string
	Membership *models.OrgMember
}

// InviteInput carries a user-invitation request.
type InviteInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	Disabled      bool
	Administrator bool
}

// PatchInput carries a partial update to an existing employee. Nil fields are
// untouched.
type PatchInput struct {
	EmployeeID    uint64
	Email         *string
	FirstName     *string
	LastName      *string
	Avatar        *string
	Administrator *bool
	Disabled      *bool
}

// UserService performs privileged user management. It runs with service-level
// store access and therefore re-verifies the caller on every operation
// instead of trusting anything resolved upstream.
type UserService struct {
	members     repository.OrgMemberRepository
	employees   repository.EmployeeRepository
	idp         idp.Provider
	provisioner Provisioner
	log         *logrus.Entry
}

// NewUserService creates a UserService.
func NewUserService(members repository.OrgMemberRepository, employees repository.EmployeeRepository, provider idp.Provider, provisioner Provisioner, log *logrus.Entry) *UserService {
	return &UserService{
		members:     members,
		employees:   employees,
		idp:         provider,
		provisioner: provisioner,
		log:         log,
	}
}

// isElevated reports whether a role carries administrative privilege. The
// client-side policy holds the same mapping; this copy exists because the
// privileged boundary must not trust client-resolved state.
func isElevated(role models.OrganizationRole) bool {
	return role == models.RoleOwner || role == models.RoleAdmin
}

// ResolveCaller verifies the bearer token and picks the membership the
// operation runs under. The organization hint is honored only when it names
// one of the caller's own verified memberships; otherwise the first
// membership in stable order is used.
func (s *UserService) ResolveCaller(ctx context.Context, token string, orgHint uint64) (*Caller, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.idp.VerifyToken(ctx, token)
	if err != nil {
		s.log.WithError(err).Debug("token verification failed")
		return nil, ErrUnauthorized
	}

	memberships, err := s.members.ListByUserID(user.ID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, ErrUnauthorized
	}

	selected := &memberships[0]
	if orgHint != 0 {
		for i := range memberships {
			if memberships[i].OrganizationID == orgHint {
				selected = &memberships[i]
				break
			}
		}
	}

	return &Caller{UserID: user.ID, Membership: selected}, nil
}

// Invite creates a new identity and provisions it into the caller's
// organization. Only elevated callers may invite. Failures before identity
// creation are plain errors; failures after it are partial failures because
// the identity already exists.
func (s *UserService) Invite(ctx context.Context, caller *Caller, in InviteInput) (*models.Employee, error) {
	if !isElevated(caller.Membership.Role) {
		return nil, ErrForbidden
	}

	orgID := caller.Membership.OrganizationID

	password := in.Password
	if password == "" {
		generated, err := utils.GenerateTempPassword(16)
		if err != nil {
			return nil, err
		}
		password = generated
	}

	user, err := s.idp.CreateUser(ctx, idp.CreateUserInput{
		Email:          in.Email,
		Password:       password,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		OrganizationID: orgID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.provisioner.Provision(ctx, user, orgID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("provisioning failed after identity creation")
		return nil, &PartialFailureError{Stage: "provision", Err: err}
	}

	if in.Disabled {
		if err := s.members.UpdateStatus(user.ID, orgID, models.MemberStatusDisabled); err != nil {
			return nil, &PartialFailureError{Stage: "disable", Err: err}
		}
		employee, err := s.employees.FindByUserAndOrg(user.ID, orgID)
		if err != nil {
			return nil, &PartialFailureError{Stage: "disable", Err: err}
		}
		if _, err := s.employees.UpdateFields(employee.ID, map[string]interface{}{"status": models.EmployeeStatusDisabled}); err != nil {
			return nil, &PartialFailureError{Stage: "disable", Err: err}
		}
	}

	if in.Administrator {
		// Elevation targets the admin role, never owner.
		if err := s.members.UpdateRole(user.ID, orgID, models.RoleAdmin); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"user_id":         user.ID,
				"organization_id": orgID,
			}).Error("role elevation failed, user remains a member")
			return nil, &PartialFailureError{Stage: "elevate", Err: err}
		}
	}

	employee, err := s.employees.FindByUserAndOrg(user.ID, orgID)
	if err != nil {
		return nil, &PartialFailureError{Stage: "load", Err: err}
	}
	return employee, nil
}

// Patch applies a partial update to an employee. Non-elevated callers may
// update only their own profile fields; role and suspension changes require
// elevation. Targets outside the caller's organization are rejected before
// any other check so cross-tenant probing cannot distinguish targets.
func (s *UserService) Patch(ctx context.Context, caller *Caller, in PatchInput) (*models.Employee, error) {
	target, err := s.employees.FindByID(in.EmployeeID)
	if err != nil {
		return nil, ErrTargetNotFound
	}

	if target.OrganizationID != caller.Membership.OrganizationID {
		return nil, ErrForbidden
	}

	elevated := isElevated(caller.Membership.Role)
	self := target.UserID == caller.UserID
	if !elevated && !self {
		return nil, ErrForbidden
	}
	if !elevated && (in.Administrator != nil || in.Disabled != nil) {
		return nil, ErrForbidden
	}

	// Identity-level changes go first: if the identity provider rejects
	// them nothing in the trusted store has moved yet.
	idpChanges := idp.UpdateUserInput{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if elevated && in.Disabled != nil {
		idpChanges.Banned = in.Disabled
	}
	if idpChanges.Email != nil || idpChanges.FirstName != nil || idpChanges.LastName != nil || idpChanges.Banned != nil {
		if _, err := s.idp.UpdateUser(ctx, target.UserID, idpChanges); err != nil {
			return nil, err
		}
	}

	fields := map[string]interface{}{}
	if in.FirstName != nil {
		fields["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		fields["last_name"] = *in.LastName
	}
	if in.Avatar != nil {
		fields["avatar"] = *in.Avatar
	}
	if elevated && in.Disabled != nil {
		if *in.Disabled {
			fields["status"] = models.EmployeeStatusDisabled
		} else {
			fields["status"] = models.EmployeeStatusActive
		}
	}
	if len(fields) > 0 {
		if _, err := s.employees.UpdateFields(target.ID, fields); err != nil {
			return nil, &PartialFailureError{Stage: "profile", Err: err}
		}
	}

	if elevated && in.Disabled != nil {
		status := models.MemberStatusActive
		if *in.Disabled {
			status = models.MemberStatusDisabled
		}
		if err := s.members.UpdateStatus(target.UserID, target.OrganizationID, status); err != nil {
			return nil, &PartialFailureError{Stage: "member_status", Err: err}
		}
	}

	if elevated && in.Administrator != nil {
		member, err := s.members.FindByUserAndOrg(target.UserID, target.OrganizationID)
		if err != nil {
			return nil, &PartialFailureError{Stage: "role", Err: err}
		}
		// Owners keep their role; demotion of an owner is not a thing
		// this service does.
		if member.Role != models.RoleOwner {
			role := models.RoleMember
			if *in.Administrator {
				role = models.RoleAdmin
			}
			if err := s.members.UpdateRole(target.UserID, target.OrganizationID, role); err != nil {
				return nil, &PartialFailureError{Stage: "role", Err: err}
			}
		}
	}

	updated, err := s.employees.FindByID(target.ID)
	if err != nil {
		return nil, &PartialFailureError{Stage: "load", Err: err}
	}
	return updated, nil
}
