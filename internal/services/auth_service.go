package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ElectricBrains530/atomic-crm/internal/idp"
	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"github.com/ElectricBrains530/atomic-crm/internal/repository"
)

// ErrAlreadyInitialized is returned when sign-up is attempted after the
// one-time setup has completed.
var ErrAlreadyInitialized = errors.New("setup has already completed")

// SignUpInput carries the first-user setup request.
type SignUpInput struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	OrganizationName string
}

// AuthService handles login and the one-time initial setup flow.
type AuthService struct {
	idp       idp.Provider
	orgs      repository.OrganizationRepository
	members   repository.OrgMemberRepository
	employees repository.EmployeeRepository
	initRepo  repository.InitStateRepository
	log       *logrus.Entry
}

// NewAuthService creates an AuthService.
func NewAuthService(provider idp.Provider, orgs repository.OrganizationRepository, members repository.OrgMemberRepository, employees repository.EmployeeRepository, initRepo repository.InitStateRepository, log *logrus.Entry) *AuthService {
	return &AuthService{
		idp:       provider,
		orgs:      orgs,
		members:   members,
		employees: employees,
		initRepo:  initRepo,
		log:       log,
	}
}

// Login verifies credentials against the identity provider.
func (s *AuthService) Login(ctx context.Context, email, password string) (*idp.User, string, error) {
	return s.idp.SignIn(ctx, email, password)
}

// SignUp runs the one-time setup: it creates the first identity, the first
// organization, and the owner membership, then marks setup complete. It is
// only available while the system is uninitialized.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*idp.User, string, error) {
	initialized, err := s.initRepo.IsInitialized()
	if err != nil {
		return nil, "", err
	}
	if initialized {
		return nil, "", ErrAlreadyInitialized
	}

	org := &models.Organization{
		Name: in.OrganizationName,
		Plan: "free",
	}
	if err := s.orgs.Create(org); err != nil {
		return nil, "", err
	}

	user, err := s.idp.CreateUser(ctx, idp.CreateUserInput{
		Email:          in.Email,
		Password:       in.Password,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		OrganizationID: org.ID,
	})
	if err != nil {
		return nil, "", err
	}

	member := &models.OrgMember{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           models.RoleOwner,
		Status:         models.MemberStatusActive,
	}
	if err := s.members.Create(member); err != nil {
		return nil, "", err
	}

	employee := &models.Employee{
		UserID:         user.ID,
		OrganizationID: org.ID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Status:         models.EmployeeStatusActive,
	}
	if err := s.employees.Create(employee); err != nil {
		return nil, "", err
	}

	if err := s.initRepo.MarkInitialized(); err != nil {
		return nil, "", err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":         user.ID,
		"organization_id": org.ID,
	}).Info("initial setup completed")

	signedIn, token, err := s.idp.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		return nil, "", err
	}
	return signedIn, token, nil
}
