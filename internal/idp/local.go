package idp

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"github.com/ElectricBrains530/atomic-crm/internal/repository"
)

// banDuration approximates a permanent suspension, lifted by updating the
// identity with Banned=false.
const banDuration = 100 * 365 * 24 * time.Hour

// LocalProvider is an embedded identity provider for self-hosted deployments:
// bcrypt credentials in the trusted store, HS256 access tokens.
type LocalProvider struct {
	users    repository.AuthUserRepository
	secret   []byte
	issuer   string
	tokenTTL time.Duration
}

// NewLocalProvider creates a LocalProvider signing tokens with secret.
func NewLocalProvider(users repository.AuthUserRepository, secret string) *LocalProvider {
	return &LocalProvider{
		users:    users,
		secret:   []byte(secret),
		issuer:   "atomic-crm",
		tokenTTL: 24 * time.Hour,
	}
}

// SignIn verifies credentials and returns the user with a fresh access token.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*User, string, error) {
	record, err := p.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if isBanned(record.BannedUntil) {
		return nil, "", ErrUserBanned
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := p.mintToken(record.ID)
	if err != nil {
		return nil, "", err
	}

	return toUser(record), token, nil
}

// VerifyToken resolves an access token to its user.
func (p *LocalProvider) VerifyToken(ctx context.Context, token string) (*User, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	record, err := p.users.FindByID(claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if isBanned(record.BannedUntil) {
		return nil, ErrUserBanned
	}

	return toUser(record), nil
}

// CreateUser provisions a new identity.
func (p *LocalProvider) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	if _, err := p.users.FindByEmail(in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	record := &models.AuthUser{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}

	if err := p.users.Create(record); err != nil {
		return nil, err
	}

	return toUser(record), nil
}

// UpdateUser applies identity-level changes to an existing identity.
func (p *LocalProvider) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*User, error) {
	record, err := p.users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if in.Email != nil {
		record.Email = *in.Email
	}
	if in.FirstName != nil {
		record.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		record.LastName = *in.LastName
	}
	if in.Banned != nil {
		if *in.Banned {
			until := time.Now().Add(banDuration)
			record.BannedUntil = &until
		} else {
			record.BannedUntil = nil
		}
	}

	if err := p.users.Update(record); err != nil {
		return nil, err
	}

	return toUser(record), nil
}

func (p *LocalProvider) mintToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    p.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func isBanned(until *time.Time) bool {
	return until != nil && until.After(time.Now())
}

func toUser(record *models.AuthUser) *User {
	return &User{
		ID:          record.ID,
		Email:       record.Email,
		FirstName:   record.FirstName,
		LastName:    record.LastName,
		BannedUntil: record.BannedUntil,
	}
}
