package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/daykey"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/lovemeter"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	// ApplyDelta moves a couple's score by points and advances its streak.
	// It must run inside the caller's transaction; the returned couple is the
	// persisted post-update state and is what callers branch on.
	ApplyDelta(ctx context.Context, tx *gorm.DB, coupleID uuid.UUID, points int) (*couple.Couple, error)
}

type Impl struct {
	couples couple.CoupleRepository
	now     func() time.Time
	log     *logger.Logger
}

type Option func(*Impl)

// WithClock overrides the wall clock, used by tests and fixed-time batch runs.
func WithClock(now func() time.Time) Option {
	return func(s *Impl) {
		if now != nil {
			s.now = now
		}
	}
}

func New(couples couple.CoupleRepository, baseLog *logger.Logger, opts ...Option) *Impl {
	s := &Impl{
		couples: couples,
		now:     func() time.Time { return time.Now().UTC() },
		log:     baseLog.With("service", "LedgerService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextStreak applies the day-granularity streak rule: unchanged when the last
// interaction was today, +1 when it was yesterday, 1 otherwise.
func NextStreak(last *time.Time, streak int, now time.Time) int {
	if last == nil {
		return 1
	}
	if daykey.SameDay(*last, now) {
		if streak < 1 {
			return 1
		}
		return streak
	}
	if daykey.SameDay(*last, now.AddDate(0, 0, -1)) {
		return streak + 1
	}
	return 1
}

func (s *Impl) ApplyDelta(ctx context.Context, tx *gorm.DB, coupleID uuid.UUID, points int) (*couple.Couple, error) {
	if tx == nil {
		return nil, apperrors.ErrNoTx
	}
	now := s.now().UTC()

	c, err := s.couples.GetByIDForUpdate(ctx, tx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("load couple: %w", err)
	}
	if c == nil {
		return nil, apperrors.ErrCoupleNotFound
	}
	if !c.IsActive() {
		return nil, apperrors.ErrCoupleInactive
	}

	meter := lovemeter.New(c.Score).Apply(points)
	c.Score = meter.Get()
	c.Stage = meter.Stage()
	c.Streak = NextStreak(c.LastInteractionAt, c.Streak, now)
	c.LastInteractionAt = &now

	if err := s.couples.SaveState(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("save couple: %w", err)
	}

	s.log.Debug("applied delta",
		"couple_id", c.ID,
		"points", points,
		"score", c.Score,
		"stage", c.Stage,
		"streak", c.Streak,
	)
	return c, nil
}
