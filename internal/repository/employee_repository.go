package repository

import (
	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"gorm.io/gorm"
)

// GormEmployeeRepository is a GORM implementation of EmployeeRepository
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository creates a new EmployeeRepository
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// Create creates an employee profile
func (r *GormEmployeeRepository) Create(employee *models.Employee) error {
	return r.db.Create(employee).Error
}

// FindByID finds an employee by its id
func (r *GormEmployeeRepository) FindByID(id uint64) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.First(&employee, id).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByUserAndOrg finds the profile of a user in one organization
func (r *GormEmployeeRepository) FindByUserAndOrg(userID string, organizationID uint64) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.Where("user_id = ? AND organization_id = ?", userID, organizationID).
		First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// UpdateFields applies a partial update and returns the updated record
func (r *GormEmployeeRepository) UpdateFields(id uint64, fields map[string]interface{}) (*models.Employee, error) {
	if err := r.db.Model(&models.Employee{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.FindByID(id)
}
