package pairing

import (
	"context"
	"fmt"
	"time"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	notificationRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/notification"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/user"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/lovemeter"
	"github.com/MyelinBots/bloom-go/internal/services/notification"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxCodeAttempts = 5

const (
	StatusSingle         = "Single"
	StatusInRelationship = "InRelationship"
)

type RelationshipStatus struct {
	Status    string          `json:"status"`
	LoveID    string          `json:"love_id,omitempty"`
	CoupleID  uuid.UUID       `json:"couple_id,omitempty"`
	PartnerID uuid.UUID       `json:"partner_id,omitempty"`
	StartDate *time.Time      `json:"start_date,omitempty"`
	Score     int             `json:"score,omitempty"`
	Stage     lovemeter.Stage `json:"stage,omitempty"`
}

type Service interface {
	GenerateCode(ctx context.Context, userID uuid.UUID) (string, error)
	// Connect pairs the initiator with the owner of code in one transaction.
	Connect(ctx context.Context, initiatorID uuid.UUID, code string) (uuid.UUID, error)
	Status(ctx context.Context, userID uuid.UUID) (RelationshipStatus, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error
	// Bond creates the Active couple for two users already validated as
	// single inside tx. Shared by Connect and match acceptance.
	Bond(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (*couple.Couple, error)
}

type Impl struct {
	db       *db.DB
	users    user.UserRepository
	couples  couple.CoupleRepository
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

func New(database *db.DB, users user.UserRepository, couples couple.CoupleRepository, notifier notification.Notifier, baseLog *logger.Logger, opts ...Option) *Impl {
	s := &Impl{
		db:       database,
		users:    users,
		couples:  couples,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		log:      baseLog.With("service", "PairingService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Impl) GenerateCode(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", apperrors.ErrUserNotFound
	}
	if !u.IsSingle() {
		return "", apperrors.ErrAlreadyPaired
	}
	if u.LoveID != nil && *u.LoveID != "" {
		return *u.LoveID, nil
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return "", apperrors.Internal("generate pairing code", err)
		}
		taken, err := s.users.LoveIDTaken(ctx, nil, code)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}
		ok, err := s.users.SetLoveID(ctx, nil, userID, code)
		if err != nil {
			if db.IsDuplicate(err) {
				continue
			}
			return "", err
		}
		if !ok {
			return "", apperrors.ErrAlreadyPaired
		}
		return code, nil
	}

	s.log.Warn("pairing code space exhausted", "user_id", userID, "attempts", maxCodeAttempts)
	return "", apperrors.ErrCodeExhausted
}

func (s *Impl) Connect(ctx context.Context, initiatorID uuid.UUID, code string) (uuid.UUID, error) {
	normalized, ok := NormalizeCode(code)
	if !ok {
		return uuid.Nil, apperrors.ErrInvalidCode
	}

	var coupleID uuid.UUID
	err := s.db.Transact(ctx, func(tx *gorm.DB) error {
		initiator, err := s.users.GetByIDForUpdate(ctx, tx, initiatorID)
		if err != nil {
			return err
		}
		if initiator == nil {
			return apperrors.ErrUserNotFound
		}
		if !initiator.IsSingle() {
			return apperrors.ErrAlreadyPaired
		}

		partner, err := s.users.GetByLoveIDForUpdate(ctx, tx, normalized)
		if err != nil {
			return err
		}
		if partner == nil {
			return apperrors.ErrInvalidCode
		}
		if partner.ID == initiator.ID {
			return apperrors.ErrSelfPairing
		}
		if !partner.IsSingle() {
			return apperrors.ErrPartnerTaken
		}

		c, err := s.Bond(ctx, tx, initiator.ID, partner.ID)
		if err != nil {
			return err
		}
		coupleID = c.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.log.Info("couple connected", "couple_id", coupleID, "initiator_id", initiatorID)
	return coupleID, nil
}

func (s *Impl) Bond(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (*couple.Couple, error) {
	if a == b {
		return nil, apperrors.ErrSelfPairing
	}
	c := couple.NewActive(a, b, s.now())
	if err := s.couples.Create(ctx, tx, c); err != nil {
		if db.IsDuplicate(err) {
			return nil, apperrors.Wrap(apperrors.CodeStateConflict, apperrors.ErrPairingConflict.Error(), err)
		}
		return nil, fmt.Errorf("create couple: %w", err)
	}
	for _, id := range c.Users() {
		attached, err := s.users.AttachCouple(ctx, tx, id, c.ID)
		if err != nil {
			return nil, fmt.Errorf("attach user %s: %w", id, err)
		}
		if !attached {
			return nil, apperrors.ErrPairingConflict
		}
	}
	return c, nil
}

func (s *Impl) Status(ctx context.Context, userID uuid.UUID) (RelationshipStatus, error) {
	u, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return RelationshipStatus{}, err
	}
	if u == nil {
		return RelationshipStatus{}, apperrors.ErrUserNotFound
	}
	if u.IsSingle() {
		st := RelationshipStatus{Status: StatusSingle}
		if u.LoveID != nil {
			st.LoveID = *u.LoveID
		}
		return st, nil
	}

	c, err := s.couples.GetByID(ctx, nil, *u.CoupleID)
	if err != nil {
		return RelationshipStatus{}, err
	}
	if c == nil {
		return RelationshipStatus{}, apperrors.ErrCoupleNotFound
	}
	start := c.StartDate
	return RelationshipStatus{
		Status:    StatusInRelationship,
		CoupleID:  c.ID,
		PartnerID: c.Partner(userID),
		StartDate: &start,
		Score:     c.Score,
		Stage:     c.Stage,
	}, nil
}

func (s *Impl) Disconnect(ctx context.Context, userID uuid.UUID) error {
	var ended *couple.Couple
	err := s.db.Transact(ctx, func(tx *gorm.DB) error {
		u, err := s.users.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return apperrors.ErrUserNotFound
		}
		if u.IsSingle() {
			return apperrors.ErrNotInCouple
		}

		c, err := s.couples.GetByIDForUpdate(ctx, tx, *u.CoupleID)
		if err != nil {
			return err
		}
		if c == nil {
			return apperrors.ErrCoupleNotFound
		}
		if !c.IsActive() {
			return apperrors.ErrCoupleInactive
		}

		now := s.now()
		c.Status = couple.StatusBroken
		c.EndedAt = &now
		c.RecoveryMode = false
		c.RecoveryLevel = couple.RecoveryNone
		c.RecoveryStartedAt = nil
		if err := s.couples.SaveState(ctx, tx, c); err != nil {
			return err
		}
		for _, id := range c.Users() {
			detached, err := s.users.DetachCouple(ctx, tx, id, c.ID)
			if err != nil {
				return err
			}
			if !detached {
				// partner no longer points at this couple; roll back and re-read
				s.log.Warn("detach lost compare-and-swap", "couple_id", c.ID, "user_id", id)
				return db.ErrStaleWrite
			}
		}
		ended = c
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("couple disconnected", "couple_id", ended.ID, "by", userID)
	if s.notifier != nil {
		partner := ended.Partner(userID)
		coupleID := ended.ID
		if _, err := s.notifier.Notify(ctx, partner, notificationRepo.TypeBreakup, "Your partner ended the relationship.", &coupleID); err != nil {
			s.log.Warn("breakup notification failed", "user_id", partner, "error", err)
		}
	}
	return nil
}
