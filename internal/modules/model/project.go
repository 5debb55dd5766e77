package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Project is a plan timeline owned by a user or an organization. The
// (owner_type, owner_id, slug) composite index makes slugs unique per
// owner while leaving them free across owners.
type Project struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`

	OwnerType OwnerType `gorm:"type:varchar(16);not null;uniqueIndex:idx_owner_slug,priority:1" json:"owner_type"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_owner_slug,priority:2" json:"owner_id"`
	Slug      string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_owner_slug,priority:3" json:"slug"`

	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Location    string `gorm:"type:varchar(255)" json:"location"`
	Description string `gorm:"type:text" json:"description"`
	Public      bool   `gorm:"not null;default:false" json:"public"`

	// Details holds free-form client data round-tripped as-is.
	Details datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`

	Events []*Event `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"events"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// Owner returns the project's owner reference.
func (p *Project) Owner() OwnerRef {
	return OwnerRef{Kind: p.OwnerType, ID: p.OwnerID}
}
