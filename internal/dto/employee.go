package dto

import (
	"time"

	"github.com/ElectricBrains530/atomic-crm/internal/models"
)

// EmployeeDTO represents an employee profile in API responses
type EmployeeDTO struct {
	ID             uint64                `json:"id"`
	UserID         string                `json:"user_id"`
	OrganizationID uint64                `json:"organization_id"`
	FirstName      string                `json:"first_name"`
	LastName       string                `json:"last_name"`
	Avatar         *string               `json:"avatar"`
	Status         models.EmployeeStatus `json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ToEmployeeDTO converts an employee to its API representation
func ToEmployeeDTO(e models.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:             e.ID,
		UserID:         e.UserID,
		OrganizationID: e.OrganizationID,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Avatar:         e.Avatar,
		Status:         e.Status,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}
