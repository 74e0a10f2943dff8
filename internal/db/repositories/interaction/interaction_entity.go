package interaction

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Mood string

const (
	MoodGreat   Mood = "Great"
	MoodGood    Mood = "Good"
	MoodNeutral Mood = "Neutral"
	MoodBad     Mood = "Bad"
	MoodFight   Mood = "Fight"
)

var moodPoints = map[Mood]int{
	MoodGreat:   2,
	MoodGood:    1,
	MoodNeutral: 0,
	MoodBad:     -2,
	MoodFight:   -5,
}

// Points is the score delta a mood applies; ok is false for unknown moods.
func (m Mood) Points() (int, bool) {
	p, ok := moodPoints[m]
	return p, ok
}

type AppreciationKind string

const (
	AppreciationLoveYou    AppreciationKind = "LoveYou"
	AppreciationThankYou   AppreciationKind = "ThankYou"
	AppreciationSorry      AppreciationKind = "Sorry"
	AppreciationMissYou    AppreciationKind = "MissYou"
	AppreciationProudOfYou AppreciationKind = "ProudOfYou"
)

func (k AppreciationKind) Valid() bool {
	switch k {
	case AppreciationLoveYou, AppreciationThankYou, AppreciationSorry, AppreciationMissYou, AppreciationProudOfYou:
		return true
	}
	return false
}

// MoodLog: at most one per (user, couple, day).
type MoodLog struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uidx_mood_user_couple_day,priority:1" json:"user_id"`
	CoupleID  uuid.UUID `gorm:"column:couple_id;type:uuid;not null;uniqueIndex:uidx_mood_user_couple_day,priority:2;index:idx_mood_couple_day,priority:1" json:"couple_id"`
	Mood      Mood      `gorm:"column:mood;type:varchar(16);not null" json:"mood"`
	Day       string    `gorm:"column:day;type:char(10);not null;uniqueIndex:uidx_mood_user_couple_day,priority:3;index:idx_mood_couple_day,priority:2" json:"day"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (MoodLog) TableName() string { return "mood_logs" }

type AppreciationLog struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index:idx_appreciation_user_couple_day,priority:1" json:"user_id"`
	CoupleID  uuid.UUID        `gorm:"column:couple_id;type:uuid;not null;index:idx_appreciation_user_couple_day,priority:2;index:idx_appreciation_couple_day,priority:1" json:"couple_id"`
	Kind      AppreciationKind `gorm:"column:kind;type:varchar(16);not null" json:"type"`
	Day       string           `gorm:"column:day;type:char(10);not null;index:idx_appreciation_user_couple_day,priority:3;index:idx_appreciation_couple_day,priority:2" json:"day"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AppreciationLog) TableName() string { return "appreciation_logs" }

// Memory is permanent; it is never swept by retention.
type Memory struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CoupleID   uuid.UUID `gorm:"column:couple_id;type:uuid;not null;index:idx_memory_couple_taken,priority:1;index:idx_memory_couple_day,priority:1" json:"couple_id"`
	UploadedBy uuid.UUID `gorm:"column:uploaded_by;type:uuid;not null" json:"uploaded_by"`
	ImageURL   string    `gorm:"column:image_url;type:text;not null" json:"image_url"`
	MediaID    string    `gorm:"column:media_id;type:varchar(255);not null" json:"media_id"`
	Note       string    `gorm:"column:note;type:varchar(500)" json:"note,omitempty"`
	TakenAt    time.Time `gorm:"column:taken_at;not null;index:idx_memory_couple_taken,priority:2,sort:desc" json:"date"`
	Day        string    `gorm:"column:day;type:char(10);not null;index:idx_memory_couple_day,priority:2" json:"-"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Memory) TableName() string { return "memories" }

func (m *MoodLog) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (a *AppreciationLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (m *Memory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Facts is everything the batch job aggregates for one couple over a window.
type Facts struct {
	Moods         []MoodLog
	Appreciations []AppreciationLog
	Memories      []Memory
	FightCount    int
}
