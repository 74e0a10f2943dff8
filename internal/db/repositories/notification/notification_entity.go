package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Type string

const (
	TypeRecoveryAlert Type = "RecoveryAlert"
	TypeHighRisk      Type = "HighRisk"
	TypeMatchRequest  Type = "MatchRequest"
	TypeMatchAccepted Type = "MatchAccepted"
	TypeBreakup       Type = "Breakup"
)

type Notification struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index:idx_notification_user_created,priority:1;index:idx_notification_user_day,priority:1" json:"user_id"`
	Type      Type       `gorm:"column:type;type:varchar(32);not null" json:"type"`
	Message   string     `gorm:"column:message;type:text;not null" json:"message"`
	IsRead    bool       `gorm:"column:is_read;not null;default:false" json:"is_read"`
	RelatedID *uuid.UUID `gorm:"column:related_id;type:uuid" json:"related_id,omitempty"`
	Day       string     `gorm:"column:day;type:char(10);not null;index:idx_notification_user_day,priority:2" json:"-"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime;index:idx_notification_user_created,priority:2,sort:desc" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
