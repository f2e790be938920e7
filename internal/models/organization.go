package models

import "time"

type Organization struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Plan      string    `gorm:"type:varchar(50);not null;default:'free'" json:"plan"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Members []OrgMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
}
