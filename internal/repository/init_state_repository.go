package repository

import (
	"errors"

	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"gorm.io/gorm"
)

// GormInitStateRepository is a GORM implementation of InitStateRepository
type GormInitStateRepository struct {
	db *gorm.DB
}

// NewInitStateRepository creates a new InitStateRepository
func NewInitStateRepository(db *gorm.DB) InitStateRepository {
	return &GormInitStateRepository{db: db}
}

// IsInitialized reports whether the one-time setup has run. A missing row
// means setup never happened.
func (r *GormInitStateRepository) IsInitialized() (bool, error) {
	var state models.InitState
	if err := r.db.First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return state.IsInitialized, nil
}

// MarkInitialized records setup completion
func (r *GormInitStateRepository) MarkInitialized() error {
	var state models.InitState
	err := r.db.First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&models.InitState{IsInitialized: true}).Error
	}
	if err != nil {
		return err
	}

	state.IsInitialized = true
	return r.db.Save(&state).Error
}
