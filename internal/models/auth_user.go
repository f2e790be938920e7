package models

import "time"

// AuthUser is an authentication identity managed by the embedded identity
// provider. Hosted deployments keep identities in the external provider
// instead; this table only backs the local implementation.
type AuthUser struct {
	ID           string     `gorm:"type:varchar(36);primarykey" json:"id"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string     `gorm:"type:varchar(255)" json:"first_name"`
	LastName     string     `gorm:"type:varchar(255)" json:"last_name"`
	BannedUntil  *time.Time `json:"banned_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
