package interaction

import (
	"context"

	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InteractionRepository interface {
	CreateMood(ctx context.Context, tx *gorm.DB, m *MoodLog) error
	HasMood(ctx context.Context, tx *gorm.DB, userID, coupleID uuid.UUID, day string) (bool, error)
	CreateAppreciation(ctx context.Context, tx *gorm.DB, a *AppreciationLog) error
	CountAppreciations(ctx context.Context, tx *gorm.DB, userID, coupleID uuid.UUID, day string) (int64, error)
	CreateMemory(ctx context.Context, tx *gorm.DB, m *Memory) error
	ListMemories(ctx context.Context, coupleID uuid.UUID, offset, limit int) ([]*Memory, error)

	// Window reads: day keys are inclusive on both ends.
	MoodsBetween(ctx context.Context, coupleID uuid.UUID, from, to string) ([]MoodLog, error)
	AppreciationsBetween(ctx context.Context, coupleID uuid.UUID, from, to string) ([]AppreciationLog, error)
	MemoriesBetween(ctx context.Context, coupleID uuid.UUID, from, to string) ([]Memory, error)
	CountFights(ctx context.Context, coupleID uuid.UUID, from, to string) (int64, error)
	Facts(ctx context.Context, coupleID uuid.UUID, from, to string) (Facts, error)

	// PurgeLogsBefore deletes mood and appreciation logs older than day.
	PurgeLogsBefore(ctx context.Context, day string) (int64, error)
}

type interactionRepository struct {
	db  *db.DB
	log *logger.Logger
}

func NewInteractionRepository(database *db.DB, baseLog *logger.Logger) InteractionRepository {
	return &interactionRepository{db: database, log: baseLog.With("repo", "InteractionRepository")}
}

func (r *interactionRepository) CreateMood(ctx context.Context, tx *gorm.DB, m *MoodLog) error {
	return r.db.Conn(ctx, tx).Create(m).Error
}

func (r *interactionRepository) HasMood(ctx context.Context, tx *gorm.DB, userID, coupleID uuid.UUID, day string) (bool, error) {
	var count int64
	if err := r.db.Conn(ctx, tx).
		Model(&MoodLog{}).
		Where("user_id = ? AND couple_id = ? AND day = ?", userID, coupleID, day).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *interactionRepository) CreateAppreciation(ctx context.Context, tx *gorm.DB, a *AppreciationLog) error {
	return r.db.Conn(ctx, tx).Create(a).Error
}

func (r *interactionRepository) CountAppreciations(ctx context.Context, tx *gorm.DB, userID, coupleID uuid.UUID, day string) (int64, error) {
	var count int64
	err := r.db.Conn(ctx, tx).
		Model(&AppreciationLog{}).
		Where("user_id = ? AND couple_id = ? AND day = ?", userID, coupleID, day).
		Count(&count).Error
	return count, err
}

func (r *interactionRepository) CreateMemory(ctx context.Context, tx *gorm.DB, m *Memory) error {
	return r.db.Conn(ctx, tx).Create(m).Error
}

func (r *interactionRepository) ListMemories(ctx context.Context, coupleID uuid.UUID, offset, limit int) ([]*Memory, error) {
	var memories []*Memory
	err := r.db.Conn(ctx, nil).
		Where("couple_id = ?", coupleID).
		Order("taken_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&memories).Error
	return memories, err
}

func (r *interactionRepository) MoodsBetween(ctx context.Context, coupleID uuid.UUID, from, to string) ([]MoodLog, error) {
	var moods []MoodLog
	err := r.db.Conn(ctx, nil).
		Where("couple_id = ? AND day >= ? AND day <= ?", coupleID, from, to).
		Find(&moods).Error
	return moods, err
}

func (r *interactionRepository) AppreciationsBetween(ctx context.Context, coupleID uuid.UUID, from, to string) ([]AppreciationLog, error) {
	var logs []AppreciationLog
	err := r.db.Conn(ctx, nil).
		Where("couple_id = ? AND day >= ? AND day <= ?", coupleID, from, to).
		Find(&logs).Error
	return logs, err
}

func (r *interactionRepository) MemoriesBetween(ctx context.Context, coupleID uuid.UUID, from, to string) ([]Memory, error) {
	var memories []Memory
	err := r.db.Conn(ctx, nil).
		Where("couple_id = ? AND day >= ? AND day <= ?", coupleID, from, to).
		Find(&memories).Error
	return memories, err
}

func (r *interactionRepository) CountFights(ctx context.Context, coupleID uuid.UUID, from, to string) (int64, error) {
	var count int64
	err := r.db.Conn(ctx, nil).
		Model(&MoodLog{}).
		Where("couple_id = ? AND mood = ? AND day >= ? AND day <= ?", coupleID, MoodFight, from, to).
		Count(&count).Error
	return count, err
}

// Facts runs the window reads one after another so a batch sweep never fans
// out more than one query per couple at a time.
func (r *interactionRepository) Facts(ctx context.Context, coupleID uuid.UUID, from, to string) (Facts, error) {
	var f Facts
	var err error
	if f.Moods, err = r.MoodsBetween(ctx, coupleID, from, to); err != nil {
		return Facts{}, err
	}
	if f.Appreciations, err = r.AppreciationsBetween(ctx, coupleID, from, to); err != nil {
		return Facts{}, err
	}
	if f.Memories, err = r.MemoriesBetween(ctx, coupleID, from, to); err != nil {
		return Facts{}, err
	}
	fights, err := r.CountFights(ctx, coupleID, from, to)
	if err != nil {
		return Facts{}, err
	}
	f.FightCount = int(fights)
	return f, nil
}

func (r *interactionRepository) PurgeLogsBefore(ctx context.Context, day string) (int64, error) {
	var total int64
	res := r.db.Conn(ctx, nil).Where("day < ?", day).Delete(&MoodLog{})
	if res.Error != nil {
		return 0, res.Error
	}
	total += res.RowsAffected
	res = r.db.Conn(ctx, nil).Where("day < ?", day).Delete(&AppreciationLog{})
	if res.Error != nil {
		return total, res.Error
	}
	return total + res.RowsAffected, nil
}
