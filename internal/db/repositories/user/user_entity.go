package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the slice of the account record the relationship core owns:
// pairing code and couple membership. Credentials live with the auth service.
type User struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name           string     `gorm:"column:name;type:varchar(50);not null" json:"name"`
	Email          string     `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	LoveID         *string    `gorm:"column:love_id;type:varchar(8);uniqueIndex" json:"love_id,omitempty"`
	CoupleID       *uuid.UUID `gorm:"column:couple_id;type:uuid;index" json:"couple_id,omitempty"`
	IsDiscoverable bool       `gorm:"column:is_discoverable;not null;default:false" json:"is_discoverable"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsSingle is true when the user belongs to no couple.
func (u *User) IsSingle() bool {
	return u.CoupleID == nil || *u.CoupleID == uuid.Nil
}
