package insight

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// WeeklyInsight is immutable once written. (CoupleID, WeekStart) is the
// idempotency key of the weekly batch pass.
type WeeklyInsight struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CoupleID          uuid.UUID `gorm:"column:couple_id;type:uuid;not null;uniqueIndex:uidx_insight_couple_week,priority:1" json:"couple_id"`
	WeekStart         string    `gorm:"column:week_start;type:char(10);not null;uniqueIndex:uidx_insight_couple_week,priority:2" json:"week_start"`
	WeekEnd           string    `gorm:"column:week_end;type:char(10);not null" json:"week_end"`
	AverageMood       float64   `gorm:"column:average_mood;not null;default:0" json:"average_mood"`
	InteractionDays   int       `gorm:"column:interaction_days;not null;default:0" json:"interaction_days"`
	AppreciationCount int       `gorm:"column:appreciation_count;not null;default:0" json:"appreciation_count"`
	MemoryCount       int       `gorm:"column:memory_count;not null;default:0" json:"memory_count"`
	FightCount        int       `gorm:"column:fight_count;not null;default:0" json:"fight_count"`
	Score             int       `gorm:"column:score;not null;default:0" json:"score"`
	ScoreChange       int       `gorm:"column:score_change;not null;default:0" json:"score_change"`
	RiskLevel         RiskLevel `gorm:"column:risk_level;type:varchar(8);not null;default:Low" json:"risk_level"`
	ActionRequired    bool      `gorm:"column:action_required;not null;default:false" json:"action_required"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (WeeklyInsight) TableName() string {
	return "weekly_insights"
}

func (w *WeeklyInsight) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
