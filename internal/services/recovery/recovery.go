package recovery

import (
	"context"
	"time"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	notificationRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/notification"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/user"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/ledger"
	"github.com/MyelinBots/bloom-go/internal/services/notification"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionPoints is the bonus a manual recovery action earns.
const ActionPoints = 2

type Result struct {
	Transition   Transition
	Level        couple.RecoveryLevel
	AlertsSent   int
	AlertsFailed int
}

type StatusView struct {
	RecoveryMode bool                 `json:"recovery_mode"`
	Level        couple.RecoveryLevel `json:"level,omitempty"`
	DaysActive   int                  `json:"days_active"`
	Score        int                  `json:"score"`
	Suggestions  []string             `json:"suggestions,omitempty"`
	Message      string               `json:"message,omitempty"`
}

type ActionResult struct {
	Score        int  `json:"score"`
	Points       int  `json:"points"`
	RecoveryMode bool `json:"recovery_mode"`
	Exited       bool `json:"exited"`
}

type Service interface {
	// Evaluate runs one daily state machine step for a couple given its
	// trailing-week fight count, using now as the reference time.
	Evaluate(ctx context.Context, coupleID uuid.UUID, fightCount int, now time.Time) (Result, error)
	SubmitAction(ctx context.Context, userID uuid.UUID, action ActionType) (ActionResult, error)
	Status(ctx context.Context, userID uuid.UUID) (StatusView, error)
}

type Impl struct {
	db       *db.DB
	users    user.UserRepository
	couples  couple.CoupleRepository
	ledger   ledger.Service
	notifier notification.Notifier
	now      func() time.Time
	log      *logger.Logger
}

type Option func(*Impl)

func WithClock(now func() time.Time) Option {
	return func(s *Impl) {
		if now != nil {
			s.now = now
		}
	}
}

func New(
	database *db.DB,
	users user.UserRepository,
	couples couple.CoupleRepository,
	ledgerSvc ledger.Service,
	notifier notification.Notifier,
	baseLog *logger.Logger,
	opts ...Option,
) *Impl {
	s := &Impl{
		db:       database,
		users:    users,
		couples:  couples,
		ledger:   ledgerSvc,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		log:      baseLog.With("service", "RecoveryService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Impl) Evaluate(ctx context.Context, coupleID uuid.UUID, fightCount int, now time.Time) (Result, error) {
	var (
		res   Result
		state *couple.Couple
	)
	err := s.db.Transact(ctx, func(tx *gorm.DB) error {
		c, err := s.couples.GetByIDForUpdate(ctx, tx, coupleID)
		if err != nil {
			return err
		}
		if c == nil {
			return apperrors.ErrCoupleNotFound
		}
		if !c.IsActive() {
			res = Result{Transition: TransitionNone}
			return nil
		}

		t := Decide(c, fightCount, now)
		res = Result{Transition: t, Level: c.RecoveryLevel}
		if t == TransitionNone {
			return nil
		}
		if err := s.couples.SaveState(ctx, tx, c); err != nil {
			return err
		}
		state = c
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	switch res.Transition {
	case TransitionEntered:
		s.log.Info("recovery entered", "couple_id", coupleID, "level", res.Level, "score", state.Score, "fights", fightCount)
		res.AlertsSent, res.AlertsFailed = s.alert(ctx, state, now)
	case TransitionExited:
		s.log.Info("recovery exited", "couple_id", coupleID, "score", state.Score)
	}
	return res, nil
}

// alert notifies both partners after the transition committed, stamped with
// the evaluation's reference time. Failures are logged and counted, never
// returned.
func (s *Impl) alert(ctx context.Context, c *couple.Couple, at time.Time) (sent, failed int) {
	if s.notifier == nil {
		return 0, 0
	}
	coupleID := c.ID
	msg := EntryMessage(c.RecoveryLevel)
	for _, id := range c.Users() {
		ok, err := s.notifier.NotifyAt(ctx, at, id, notificationRepo.TypeRecoveryAlert, msg, &coupleID)
		if err != nil {
			failed++
			s.log.Warn("recovery alert failed", "couple_id", coupleID, "user_id", id, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, failed
}

func (s *Impl) coupleOf(ctx context.Context, tx *gorm.DB, userID uuid.UUID, forUpdate bool) (*couple.Couple, error) {
	u, err := s.users.GetByID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.ErrUserNotFound
	}
	if u.IsSingle() {
		return nil, apperrors.ErrNotInCouple
	}
	var c *couple.Couple
	if forUpdate {
		c, err = s.couples.GetByIDForUpdate(ctx, tx, *u.CoupleID)
	} else {
		c, err = s.couples.GetByID(ctx, tx, *u.CoupleID)
	}
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.ErrCoupleNotFound
	}
	if !c.HasMember(userID) {
		return nil, apperrors.ErrNotMember
	}
	return c, nil
}

func (s *Impl) SubmitAction(ctx context.Context, userID uuid.UUID, action ActionType) (ActionResult, error) {
	if !action.Valid() {
		return ActionResult{}, apperrors.ErrInvalidRecoveryAct
	}

	var out ActionResult
	err := s.db.Transact(ctx, func(tx *gorm.DB) error {
		c, err := s.coupleOf(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if !c.IsActive() {
			return apperrors.ErrCoupleInactive
		}
		if !c.RecoveryMode {
			return apperrors.ErrNotInRecovery
		}

		if _, err := s.ledger.ApplyDelta(ctx, tx, c.ID, ActionPoints); err != nil {
			return err
		}
		// branch on the stored post-update state only
		c, err = s.couples.GetByIDForUpdate(ctx, tx, c.ID)
		if err != nil {
			return err
		}

		out = ActionResult{Score: c.Score, Points: ActionPoints, RecoveryMode: true}
		if c.Score > ExitScore {
			exit(c)
			if err := s.couples.SaveState(ctx, tx, c); err != nil {
				return err
			}
			out.RecoveryMode = false
			out.Exited = true
		}
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}
	s.log.Info("recovery action", "user_id", userID, "action", action, "score", out.Score, "exited", out.Exited)
	return out, nil
}

func (s *Impl) Status(ctx context.Context, userID uuid.UUID) (StatusView, error) {
	c, err := s.coupleOf(ctx, nil, userID, false)
	if err != nil {
		return StatusView{}, err
	}
	if !c.RecoveryMode {
		return StatusView{Score: c.Score, Message: "Relationship is healthy."}, nil
	}
	return StatusView{
		RecoveryMode: true,
		Level:        c.RecoveryLevel,
		DaysActive:   DaysInRecovery(c, s.now()),
		Score:        c.Score,
		Suggestions:  SuggestionsFor(c.RecoveryLevel),
	}, nil
}
