package repository

import (
	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"gorm.io/gorm"
)

// GormAuthUserRepository is a GORM implementation of AuthUserRepository
type GormAuthUserRepository struct {
	db *gorm.DB
}

// NewAuthUserRepository creates a new AuthUserRepository
func NewAuthUserRepository(db *gorm.DB) AuthUserRepository {
	return &GormAuthUserRepository{db: db}
}

// Create creates an authentication identity
func (r *GormAuthUserRepository) Create(user *models.AuthUser) error {
	return r.db.Create(user).Error
}

// FindByID finds an identity by id
func (r *GormAuthUserRepository) FindByID(id string) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds an identity by email
func (r *GormAuthUserRepository) FindByEmail(email string) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves changes to an identity
func (r *GormAuthUserRepository) Update(user *models.AuthUser) error {
	return r.db.Save(user).Error
}
