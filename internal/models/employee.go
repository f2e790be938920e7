package models

import (
	"strings"
	"time"
)

type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusDisabled EmployeeStatus = "disabled"
)

// Employee is the organization-scoped display profile for a membership. A user
// with memberships in two organizations has two distinct employee records.
type Employee struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	UserID         string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_employees_org_user" json:"user_id"`
	OrganizationID uint64         `gorm:"not null;uniqueIndex:idx_employees_org_user" json:"organization_id"`
	FirstName      string         `gorm:"type:varchar(255)" json:"first_name"`
	LastName       string         `gorm:"type:varchar(255)" json:"last_name"`
	Avatar         *string        `gorm:"type:text" json:"avatar"`
	Status         EmployeeStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FullName joins the name fields for display.
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}
