package model

import (
	"time"

	"github.com/google/uuid"
)

// Event is one entry on a project timeline. Index is the dense display
// position within the project (0, 1, 2, ...), maintained by the service
// layer on every write.
type Event struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`

	Label       string `gorm:"type:varchar(255);not null" json:"label"`
	Description string `gorm:"type:text" json:"description"`
	Index       int    `gorm:"column:index;not null" json:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}
