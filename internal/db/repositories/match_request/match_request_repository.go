package match_request

import (
	"context"
	"time"

	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchRequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, m *MatchRequest) error
	CountSentOn(ctx context.Context, tx *gorm.DB, fromUserID uuid.UUID, day string) (int64, error)
	// FindPending returns the live pending request from -> to, or nil.
	FindPending(ctx context.Context, tx *gorm.DB, fromUserID, toUserID uuid.UUID, now time.Time) (*MatchRequest, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*MatchRequest, error)
	// SetStatus moves a request out of pending; false when it was no longer pending.
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status Status) (bool, error)
	// ExpireStalePair expires a lapsed pending request from -> to so a new one
	// can take its place under the pending-pair unique index.
	ExpireStalePair(ctx context.Context, tx *gorm.DB, fromUserID, toUserID uuid.UUID, now time.Time) error
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

type matchRequestRepository struct {
	db  *db.DB
	log *logger.Logger
}

func NewMatchRequestRepository(database *db.DB, baseLog *logger.Logger) MatchRequestRepository {
	return &matchRequestRepository{db: database, log: baseLog.With("repo", "MatchRequestRepository")}
}

func (r *matchRequestRepository) Create(ctx context.Context, tx *gorm.DB, m *MatchRequest) error {
	return r.db.Conn(ctx, tx).Create(m).Error
}

func (r *matchRequestRepository) CountSentOn(ctx context.Context, tx *gorm.DB, fromUserID uuid.UUID, day string) (int64, error) {
	var count int64
	err := r.db.Conn(ctx, tx).
		Model(&MatchRequest{}).
		Where("from_user_id = ? AND day = ?", fromUserID, day).
		Count(&count).Error
	return count, err
}

func (r *matchRequestRepository) FindPending(ctx context.Context, tx *gorm.DB, fromUserID, toUserID uuid.UUID, now time.Time) (*MatchRequest, error) {
	return r.first(r.db.Conn(ctx, tx).
		Where("from_user_id = ? AND to_user_id = ? AND status = ? AND expires_at > ?",
			fromUserID, toUserID, StatusPending, now))
}

func (r *matchRequestRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*MatchRequest, error) {
	return r.first(r.db.Conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *matchRequestRepository) first(q *gorm.DB) (*MatchRequest, error) {
	var m MatchRequest
	if err := q.First(&m).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *matchRequestRepository) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status Status) (bool, error) {
	res := r.db.Conn(ctx, tx).
		Model(&MatchRequest{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", status)
	return res.RowsAffected == 1, res.Error
}

func (r *matchRequestRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.Conn(ctx, nil).
		Model(&MatchRequest{}).
		Where("status = ? AND expires_at <= ?", StatusPending, now).
		Update("status", StatusExpired)
	return res.RowsAffected, res.Error
}

func (r *matchRequestRepository) ExpireStalePair(ctx context.Context, tx *gorm.DB, fromUserID, toUserID uuid.UUID, now time.Time) error {
	return r.db.Conn(ctx, tx).
		Model(&MatchRequest{}).
		Where("from_user_id = ? AND to_user_id = ? AND status = ? AND expires_at <= ?",
			fromUserID, toUserID, StatusPending, now).
		Update("status", StatusExpired).Error
}
