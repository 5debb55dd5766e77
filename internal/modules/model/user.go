package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Username string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"username"`
	Name     string    `gorm:"type:varchar(255)" json:"name"`

	// TokenHMAC is the keyed hash used to look up a bearer token;
	// TokenPHC is the argon2id digest verified after lookup.
	TokenHMAC string `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	TokenPHC  string `gorm:"type:varchar(255)" json:"-"`

	Organizations []*Organization `gorm:"many2many:organization_members;" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
