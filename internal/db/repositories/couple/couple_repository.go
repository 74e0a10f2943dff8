package couple

import (
	"context"

	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CoupleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *Couple) error
	// GetByID returns nil, nil when the couple does not exist.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Couple, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Couple, error)
	// SaveState persists every mutable field if c.Version still matches the
	// stored row, then bumps c.Version. Returns db.ErrStaleWrite otherwise.
	SaveState(ctx context.Context, tx *gorm.DB, c *Couple) error
	// ListActiveAfter pages active couples in id order, starting after afterID.
	ListActiveAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]*Couple, error)
}

type coupleRepository struct {
	db  *db.DB
	log *logger.Logger
}

func NewCoupleRepository(database *db.DB, baseLog *logger.Logger) CoupleRepository {
	return &coupleRepository{db: database, log: baseLog.With("repo", "CoupleRepository")}
}

func (r *coupleRepository) Create(ctx context.Context, tx *gorm.DB, c *Couple) error {
	return r.db.Conn(ctx, tx).Create(c).Error
}

func (r *coupleRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Couple, error) {
	return r.first(r.db.Conn(ctx, tx).Where("id = ?", id))
}

func (r *coupleRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Couple, error) {
	return r.first(r.db.Conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *coupleRepository) first(q *gorm.DB) (*Couple, error) {
	var c Couple
	if err := q.First(&c).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *coupleRepository) SaveState(ctx context.Context, tx *gorm.DB, c *Couple) error {
	res := r.db.Conn(ctx, tx).
		Model(&Couple{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]any{
			"status":              c.Status,
			"ended_at":            c.EndedAt,
			"score":               c.Score,
			"stage":               c.Stage,
			"streak":              c.Streak,
			"last_interaction_at": c.LastInteractionAt,
			"recovery_mode":       c.RecoveryMode,
			"recovery_level":      c.RecoveryLevel,
			"recovery_started_at": c.RecoveryStartedAt,
			"version":             c.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return db.ErrStaleWrite
	}
	c.Version++
	return nil
}

func (r *coupleRepository) ListActiveAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]*Couple, error) {
	if limit <= 0 {
		limit = 100
	}
	var couples []*Couple
	q := r.db.Conn(ctx, nil).Where("status = ?", StatusActive)
	if afterID != uuid.Nil {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Order("id ASC").Limit(limit).Find(&couples).Error; err != nil {
		return nil, err
	}
	return couples, nil
}
