package models

import "time"

// InitState records whether the one-time initial setup (first organization and
// owner) has completed. Distinct from per-user authentication state.
type InitState struct {
	ID            uint64    `gorm:"primarykey" json:"id"`
	IsInitialized bool      `gorm:"not null;default:false" json:"is_initialized"`
	UpdatedAt     time.Time `json:"updated_at"`
}
