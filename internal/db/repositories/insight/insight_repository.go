package insight

import (
	"context"

	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InsightRepository interface {
	// InsertOnce writes w unless an insight for (couple, week) already exists.
	// created is false for the no-op case; that is not an error.
	InsertOnce(ctx context.Context, tx *gorm.DB, w *WeeklyInsight) (created bool, err error)
	// Latest returns the most recent insight written before weekStart.
	Latest(ctx context.Context, coupleID uuid.UUID, beforeWeek string) (*WeeklyInsight, error)
	PurgeBefore(ctx context.Context, weekStart string) (int64, error)
}

type insightRepository struct {
	db  *db.DB
	log *logger.Logger
}

func NewInsightRepository(database *db.DB, baseLog *logger.Logger) InsightRepository {
	return &insightRepository{db: database, log: baseLog.With("repo", "InsightRepository")}
}

func (r *insightRepository) InsertOnce(ctx context.Context, tx *gorm.DB, w *WeeklyInsight) (bool, error) {
	res := r.db.Conn(ctx, tx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "couple_id"}, {Name: "week_start"}},
			DoNothing: true,
		}).
		Create(w)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *insightRepository) Latest(ctx context.Context, coupleID uuid.UUID, beforeWeek string) (*WeeklyInsight, error) {
	return r.first(r.db.Conn(ctx, nil).
		Where("couple_id = ? AND week_start < ?", coupleID, beforeWeek).
		Order("week_start DESC"))
}

func (r *insightRepository) first(q *gorm.DB) (*WeeklyInsight, error) {
	var w WeeklyInsight
	if err := q.First(&w).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *insightRepository) PurgeBefore(ctx context.Context, weekStart string) (int64, error) {
	res := r.db.Conn(ctx, nil).Where("week_start < ?", weekStart).Delete(&WeeklyInsight{})
	return res.RowsAffected, res.Error
}
