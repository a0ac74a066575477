package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultAvatarURL is assigned to accounts created without an avatar.
const DefaultAvatarURL = "https://picsum.photos/150"

// Account is the user record whose point counter is credited by approved submissions.
type Account struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	Avatar    string    `gorm:"size:512" json:"avatar"`
	Points    int64     `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate fills identifier and avatar defaults.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if strings.TrimSpace(a.Avatar) == "" {
		a.Avatar = DefaultAvatarURL
	}
	if strings.TrimSpace(a.Role) == "" {
		a.Role = "student"
	}
	return nil
}
