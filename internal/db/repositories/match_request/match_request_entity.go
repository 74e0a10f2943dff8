package match_request

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Expiry is how long a pending request stays actionable.
const Expiry = 24 * time.Hour

type MatchRequest struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FromUserID uuid.UUID `gorm:"column:from_user_id;type:uuid;not null;index:idx_match_from_day,priority:1" json:"from_user_id"`
	ToUserID   uuid.UUID `gorm:"column:to_user_id;type:uuid;not null;index:idx_match_to_status,priority:1" json:"to_user_id"`
	Status     Status    `gorm:"column:status;type:varchar(16);not null;default:pending;index:idx_match_to_status,priority:2" json:"status"`
	Message    string    `gorm:"column:message;type:varchar(140)" json:"message,omitempty"`
	Day        string    `gorm:"column:day;type:char(10);not null;index:idx_match_from_day,priority:2" json:"-"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (MatchRequest) TableName() string {
	return "match_requests"
}

func (m *MatchRequest) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *MatchRequest) Expired(now time.Time) bool {
	return !now.Before(m.ExpiresAt)
}
