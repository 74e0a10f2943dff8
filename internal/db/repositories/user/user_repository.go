package user

import (
	"context"

	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, u *User) error
	// GetByID returns nil, nil when the user does not exist.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	// GetByIDForUpdate row-locks the user for the rest of tx.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	GetByLoveIDForUpdate(ctx context.Context, tx *gorm.DB, loveID string) (*User, error)
	LoveIDTaken(ctx context.Context, tx *gorm.DB, loveID string) (bool, error)

	// SetLoveID stores a pairing code only while the user is still single.
	SetLoveID(ctx context.Context, tx *gorm.DB, id uuid.UUID, loveID string) (bool, error)
	// AttachCouple is the compare-and-swap half of pairing: it only succeeds
	// while couple_id is still NULL, and burns the pairing code.
	AttachCouple(ctx context.Context, tx *gorm.DB, id, coupleID uuid.UUID) (bool, error)
	// DetachCouple clears couple_id only if it still points at coupleID.
	DetachCouple(ctx context.Context, tx *gorm.DB, id, coupleID uuid.UUID) (bool, error)
}

type userRepository struct {
	db  *db.DB
	log *logger.Logger
}

func NewUserRepository(database *db.DB, baseLog *logger.Logger) UserRepository {
	return &userRepository{db: database, log: baseLog.With("repo", "UserRepository")}
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, u *User) error {
	return r.db.Conn(ctx, tx).Create(u).Error
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	return r.first(r.db.Conn(ctx, tx).Where("id = ?", id))
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	return r.first(r.db.Conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *userRepository) GetByLoveIDForUpdate(ctx context.Context, tx *gorm.DB, loveID string) (*User, error) {
	return r.first(r.db.Conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("love_id = ?", loveID))
}

func (r *userRepository) first(q *gorm.DB) (*User, error) {
	var u User
	if err := q.First(&u).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) LoveIDTaken(ctx context.Context, tx *gorm.DB, loveID string) (bool, error) {
	var count int64
	if err := r.db.Conn(ctx, tx).
		Model(&User{}).
		Where("love_id = ?", loveID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) SetLoveID(ctx context.Context, tx *gorm.DB, id uuid.UUID, loveID string) (bool, error) {
	res := r.db.Conn(ctx, tx).
		Model(&User{}).
		Where("id = ? AND couple_id IS NULL", id).
		Update("love_id", loveID)
	return res.RowsAffected == 1, res.Error
}

func (r *userRepository) AttachCouple(ctx context.Context, tx *gorm.DB, id, coupleID uuid.UUID) (bool, error) {
	res := r.db.Conn(ctx, tx).
		Model(&User{}).
		Where("id = ? AND couple_id IS NULL", id).
		Updates(map[string]any{
			"couple_id":       coupleID,
			"love_id":         gorm.Expr("NULL"),
			"is_discoverable": false,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *userRepository) DetachCouple(ctx context.Context, tx *gorm.DB, id, coupleID uuid.UUID) (bool, error) {
	res := r.db.Conn(ctx, tx).
		Model(&User{}).
		Where("id = ? AND couple_id = ?", id, coupleID).
		Update("couple_id", gorm.Expr("NULL"))
	return res.RowsAffected == 1, res.Error
}
