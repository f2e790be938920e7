package repository

import (
	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"gorm.io/gorm"
)

// GormOrgMemberRepository is a GORM implementation of OrgMemberRepository
type GormOrgMemberRepository struct {
	db *gorm.DB
}

// NewOrgMemberRepository creates a new OrgMemberRepository
func NewOrgMemberRepository(db *gorm.DB) OrgMemberRepository {
	return &GormOrgMemberRepository{db: db}
}

// Create creates a membership
func (r *GormOrgMemberRepository) Create(member *models.OrgMember) error {
	return r.db.Create(member).Error
}

// ListByUserID lists a user's memberships ordered by creation time then id,
// so the "first membership" fallback is deterministic across resolutions.
func (r *GormOrgMemberRepository) ListByUserID(userID string) ([]models.OrgMember, error) {
	var memberships []models.OrgMember
	if err := r.db.Preload("Organization").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// FindByUserAndOrg finds the membership of a user in one organization
func (r *GormOrgMemberRepository) FindByUserAndOrg(userID string, organizationID uint64) (*models.OrgMember, error) {
	var member models.OrgMember
	if err := r.db.Where("user_id = ? AND organization_id = ?", userID, organizationID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateRole changes the role of a user's membership in one organization
func (r *GormOrgMemberRepository) UpdateRole(userID string, organizationID uint64, role models.OrganizationRole) error {
	return r.db.Model(&models.OrgMember{}).
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		Update("role", role).Error
}

// UpdateStatus changes the status of a user's membership in one organization
func (r *GormOrgMemberRepository) UpdateStatus(userID string, organizationID uint64, status models.MemberStatus) error {
	return r.db.Model(&models.OrgMember{}).
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		Update("status", status).Error
}
