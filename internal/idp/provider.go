// Package idp abstracts the authentication identity provider: the external
// system that owns login credentials, access tokens, and account suspension.
// Membership and profile data live in the trusted store, not here.
package idp

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("idp: invalid credentials")
	ErrEmailTaken         = errors.New("idp: email already registered")
	ErrUserNotFound       = errors.New("idp: user not found")
	ErrTokenInvalid       = errors.New("idp: token invalid or expired")
	ErrUserBanned         = errors.New("idp: user is suspended")
)

// User is an authentication identity.
type User struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	BannedUntil *time.Time
}

// CreateUserInput carries the fields for a new identity. OrganizationID is
// passed through as metadata so provisioning collaborators can attach the
// base membership on identity creation.
type CreateUserInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	OrganizationID uint64
}

// UpdateUserInput applies identity-level changes. Nil fields are untouched.
type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Banned    *bool
}

// Provider is the identity provider contract.
type Provider interface {
	// SignIn verifies credentials and returns the user with a fresh access token.
	SignIn(ctx context.Context, email, password string) (*User, string, error)

	// VerifyToken resolves an access token to its user, rejecting expired
	// tokens and suspended users.
	VerifyToken(ctx context.Context, token string) (*User, error)

	// CreateUser provisions a new identity.
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)

	// UpdateUser applies identity-level changes (email, name metadata,
	// suspension) to an existing identity.
	UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*User, error)
}
