package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElectricBrains530/atomic-crm/internal/idp"
	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"github.com/ElectricBrains530/atomic-crm/internal/repository"
)

func setupAuthService(t *testing.T) (*AuthService, *fixture) {
	t.Helper()
	db := setupDB(t)
	members := repository.NewOrgMemberRepository(db)
	employees := repository.NewEmployeeRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	initRepo := repository.NewInitStateRepository(db)
	authUsers := repository.NewAuthUserRepository(db)

	provider := idp.NewLocalProvider(authUsers, "test-secret")

	service := NewAuthService(provider, orgs, members, employees, initRepo, testLog())
	f := &fixture{db: db, members: members, employees: employees}
	return service, f
}

func TestSignUpInitialSetup(t *testing.T) {
	service, f := setupAuthService(t)

	user, token, err := service.SignUp(context.Background(), SignUpInput{
		Email:            "founder@example.com",
		Password:         "super-secret",
		FirstName:        "Fay",
		LastName:         "Founder",
		OrganizationName: "Acme",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)

	// The first user owns the first organization
	memberships, err := f.members.ListByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, models.RoleOwner, memberships[0].Role)
	assert.Equal(t, "Acme", memberships[0].Organization.Name)
	assert.Equal(t, "free", memberships[0].Organization.Plan)

	employee, err := f.employees.FindByUserAndOrg(user.ID, memberships[0].OrganizationID)
	require.NoError(t, err)
	assert.Equal(t, "Fay Founder", employee.FullName())
}

func TestSignUpOnlyOnce(t *testing.T) {
	service, _ := setupAuthService(t)

	_, _, err := service.SignUp(context.Background(), SignUpInput{
		Email:            "founder@example.com",
		Password:         "super-secret",
		FirstName:        "Fay",
		LastName:         "Founder",
		OrganizationName: "Acme",
	})
	require.NoError(t, err)

	_, _, err = service.SignUp(context.Background(), SignUpInput{
		Email:            "second@example.com",
		Password:         "super-secret",
		FirstName:        "Sam",
		LastName:         "Second",
		OrganizationName: "Globex",
	})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestLoginAfterSignUp(t *testing.T) {
	service, _ := setupAuthService(t)

	_, _, err := service.SignUp(context.Background(), SignUpInput{
		Email:            "founder@example.com",
		Password:         "super-secret",
		FirstName:        "Fay",
		LastName:         "Founder",
		OrganizationName: "Acme",
	})
	require.NoError(t, err)

	user, token, err := service.Login(context.Background(), "founder@example.com", "super-secret")
	require.NoError(t, err)
	assert.Equal(t, "founder@example.com", user.Email)
	assert.NotEmpty(t, token)

	_, _, err = service.Login(context.Background(), "founder@example.com", "wrong")
	assert.ErrorIs(t, err, idp.ErrInvalidCredentials)
}
