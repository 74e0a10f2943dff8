package couple

import (
	"time"

	"github.com/MyelinBots/bloom-go/internal/services/lovemeter"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusBroken   Status = "broken"
	StatusArchived Status = "archived"
)

type RecoveryLevel string

const (
	RecoveryNone     RecoveryLevel = ""
	RecoverySoft     RecoveryLevel = "Soft"
	RecoveryModerate RecoveryLevel = "Moderate"
	RecoveryCritical RecoveryLevel = "Critical"
)

// Couple is the aggregate every health writer goes through. UserLow/UserHigh
// hold the pair in canonical (sorted) order; Version backs compare-and-swap
// writes.
type Couple struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserLow   uuid.UUID  `gorm:"column:user_low;type:uuid;not null" json:"-"`
	UserHigh  uuid.UUID  `gorm:"column:user_high;type:uuid;not null" json:"-"`
	Status    Status     `gorm:"column:status;type:varchar(16);not null;default:active;index" json:"status"`
	StartDate time.Time  `gorm:"column:start_date;not null" json:"start_date"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`

	Score             int             `gorm:"column:score;not null;default:50" json:"score"`
	Stage             lovemeter.Stage `gorm:"column:stage;type:varchar(16);not null" json:"stage"`
	Streak            int             `gorm:"column:streak;not null;default:0" json:"streak"`
	LastInteractionAt *time.Time      `gorm:"column:last_interaction_at" json:"last_interaction_at,omitempty"`

	RecoveryMode      bool          `gorm:"column:recovery_mode;not null;default:false;index" json:"recovery_mode"`
	RecoveryLevel     RecoveryLevel `gorm:"column:recovery_level;type:varchar(16)" json:"recovery_level,omitempty"`
	RecoveryStartedAt *time.Time    `gorm:"column:recovery_started_at" json:"recovery_started_at,omitempty"`

	Version   int64     `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Couple) TableName() string {
	return "couples"
}

func (c *Couple) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CanonicalPair sorts two user ids so the same unordered pair always maps to
// the same (low, high) tuple.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// NewActive builds a fresh Active couple with default health.
func NewActive(a, b uuid.UUID, now time.Time) *Couple {
	low, high := CanonicalPair(a, b)
	return &Couple{
		ID:        uuid.New(),
		UserLow:   low,
		UserHigh:  high,
		Status:    StatusActive,
		StartDate: now,
		Score:     lovemeter.DefaultScore,
		Stage:     lovemeter.StageOf(lovemeter.DefaultScore),
	}
}

func (c *Couple) Users() []uuid.UUID {
	return []uuid.UUID{c.UserLow, c.UserHigh}
}

func (c *Couple) HasMember(userID uuid.UUID) bool {
	return c.UserLow == userID || c.UserHigh == userID
}

// Partner returns the other member, or uuid.Nil when userID is not a member.
func (c *Couple) Partner(userID uuid.UUID) uuid.UUID {
	switch userID {
	case c.UserLow:
		return c.UserHigh
	case c.UserHigh:
		return c.UserLow
	default:
		return uuid.Nil
	}
}

func (c *Couple) IsActive() bool {
	return c.Status == StatusActive
}

// LastActivity falls back to the pairing time before any interaction happened.
func (c *Couple) LastActivity() time.Time {
	if c.LastInteractionAt != nil {
		return *c.LastInteractionAt
	}
	if !c.CreatedAt.IsZero() {
		return c.CreatedAt
	}
	return c.StartDate
}
