package interaction

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/daykey"
	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	interactionRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/interaction"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/user"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/ledger"
	"github.com/MyelinBots/bloom-go/internal/services/lovemeter"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AppreciationDailyCap = 5
	AppreciationPoints   = 1
	MemoryPoints         = 3
	MaxNoteLength        = 500
	MaxMemoryPage        = 50
)

// Outcome is what every scoring submission returns: the couple state after
// the ledger update.
type Outcome struct {
	Score  int             `json:"score"`
	Stage  lovemeter.Stage `json:"stage"`
	Streak int             `json:"streak"`
	Points int             `json:"points"`
}

type MemoryInput struct {
	ImageURL string
	MediaID  string
	Note     string
	TakenAt  *time.Time
}

type LoveStatus struct {
	CoupleID          uuid.UUID       `json:"couple_id"`
	Score             int             `json:"score"`
	Stage             lovemeter.Stage `json:"stage"`
	Streak            int             `json:"streak"`
	LoveBar           string          `json:"love_bar"`
	LastInteractionAt *time.Time      `json:"last_interaction_at,omitempty"`
	MoodSubmitted     bool            `json:"mood_submitted_today"`
	RecoveryMode      bool            `json:"recovery_mode"`
}

type Service interface {
	SubmitMood(ctx context.Context, userID uuid.UUID, mood interactionRepo.Mood) (Outcome, error)
	SendAppreciation(ctx context.Context, userID uuid.UUID, kind interactionRepo.AppreciationKind) (Outcome, error)
	AddMemory(ctx context.Context, userID uuid.UUID, in MemoryInput) (*interactionRepo.Memory, Outcome, error)
	LoveStatus(ctx context.Context, userID uuid.UUID) (LoveStatus, error)
	ListMemories(ctx context.Context, userID uuid.UUID, page, limit int) ([]*interactionRepo.Memory, error)
}

type Impl struct {
	db      *db.DB
	users   user.UserRepository
	couples couple.CoupleRepository
	logs    interactionRepo.InteractionRepository
	ledger  ledger.Service
	now     func() time.Time
	log     *logger.Logger
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
	logs interactionRepo.InteractionRepository,
	ledgerSvc ledger.Service,
	baseLog *logger.Logger,
	opts ...Option,
) *Impl {
	s := &Impl{
		db:      database,
		users:   users,
		couples: couples,
		logs:    logs,
		ledger:  ledgerSvc,
		now:     func() time.Time { return time.Now().UTC() },
		log:     baseLog.With("service", "InteractionService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// activeCouple resolves the caller's couple inside tx and checks membership.
func (s *Impl) activeCouple(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*couple.Couple, error) {
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
	c, err := s.couples.GetByID(ctx, tx, *u.CoupleID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.ErrCoupleNotFound
	}
	if !c.HasMember(userID) {
		return nil, apperrors.ErrNotMember
	}
	if !c.IsActive() {
		return nil, apperrors.ErrCoupleInactive
	}
	return c, nil
}

func outcome(c *couple.Couple, points int) Outcome {
	return Outcome{Score: c.Score, Stage: c.Stage, Streak: c.Streak, Points: points}
}

func (s *Impl) SubmitMood(ctx context.Context, userID uuid.UUID, mood interactionRepo.Mood) (Outcome, error) {
	points, ok := mood.Points()
	if !ok {
		return Outcome{}, apperrors.ErrInvalidMood
	}

	var out Outcome
	err := s.db.Transact(ctx, func(tx *gorm.DB) error {
		c, err := s.activeCouple(ctx, tx, userID)
		if err != nil {
			return err
		}
		day := daykey.Of(s.now())

		exists, err := s.logs.HasMood(ctx, tx, userID, c.ID, day)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrDuplicateMood
		}
		entry := &interactionRepo.MoodLog{UserID: userID, CoupleID: c.ID, Mood: mood, Day: day}
		if err := s.logs.CreateMood(ctx, tx, entry); err != nil {
			// a concurrent submission won the unique index
			if db.IsDuplicate(err) {
				return apperrors.ErrDuplicateMood
			}
			return err
		}

		updated, err := s.ledger.ApplyDelta(ctx, tx, c.ID, points)
		if err != nil {
			return err
		}
		out = outcome(updated, points)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	s.log.Debug("mood submitted", "user_id", userID, "mood", mood, "score", out.Score)
	return out, nil
}

func (s *Impl) SendAppreciation(ctx context.Context, userID uuid.UUID, kind interactionRepo.AppreciationKind) (Outcome, error) {
	if !kind.Valid() {
		return Outcome{}, apperrors.ErrInvalidAppreciation
	}

	var out Outcome
	err := s.db.Transact(ctx, func(tx *gorm.DB) error {
		c, err := s.activeCouple(ctx, tx, userID)
		if err != nil {
			return err
		}
		// lock the aggregate first so the cap check and insert are serialized
		if _, err := s.couples.GetByIDForUpdate(ctx, tx, c.ID); err != nil {
			return err
		}
		day := daykey.Of(s.now())

		sent, err := s.logs.CountAppreciations(ctx, tx, userID, c.ID, day)
		if err != nil {
			return err
		}
		if sent >= AppreciationDailyCap {
			return apperrors.ErrAppreciationCap
		}
		entry := &interactionRepo.AppreciationLog{UserID: userID, CoupleID: c.ID, Kind: kind, Day: day}
		if err := s.logs.CreateAppreciation(ctx, tx, entry); err != nil {
			return err
		}

		updated, err := s.ledger.ApplyDelta(ctx, tx, c.ID, AppreciationPoints)
		if err != nil {
			return err
		}
		out = outcome(updated, AppreciationPoints)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (s *Impl) AddMemory(ctx context.Context, userID uuid.UUID, in MemoryInput) (*interactionRepo.Memory, Outcome, error) {
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.MediaID = strings.TrimSpace(in.MediaID)
	if in.ImageURL == "" || in.MediaID == "" {
		return nil, Outcome{}, apperrors.ErrMissingMedia
	}
	if utf8.RuneCountInString(in.Note) > MaxNoteLength {
		return nil, Outcome{}, apperrors.ErrNoteTooLong
	}

	now := s.now().UTC()
	takenAt := now
	if in.TakenAt != nil && !in.TakenAt.IsZero() {
		takenAt = in.TakenAt.UTC()
	}

	var (
		memory *interactionRepo.Memory
		out    Outcome
	)
	err := s.db.Transact(ctx, func(tx *gorm.DB) error {
		c, err := s.activeCouple(ctx, tx, userID)
		if err != nil {
			return err
		}
		m := &interactionRepo.Memory{
			CoupleID:   c.ID,
			UploadedBy: userID,
			ImageURL:   in.ImageURL,
			MediaID:    in.MediaID,
			Note:       in.Note,
			TakenAt:    takenAt,
			// Memories count toward the day they were uploaded, not taken.
			Day: daykey.Of(now),
		}
		if err := s.logs.CreateMemory(ctx, tx, m); err != nil {
			return fmt.Errorf("create memory: %w", err)
		}
		updated, err := s.ledger.ApplyDelta(ctx, tx, c.ID, MemoryPoints)
		if err != nil {
			return err
		}
		memory = m
		out = outcome(updated, MemoryPoints)
		return nil
	})
	if err != nil {
		return nil, Outcome{}, err
	}
	return memory, out, nil
}

func (s *Impl) LoveStatus(ctx context.Context, userID uuid.UUID) (LoveStatus, error) {
	c, err := s.activeCouple(ctx, nil, userID)
	if err != nil {
		return LoveStatus{}, err
	}
	submitted, err := s.logs.HasMood(ctx, nil, userID, c.ID, daykey.Of(s.now()))
	if err != nil {
		return LoveStatus{}, err
	}
	return LoveStatus{
		CoupleID:          c.ID,
		Score:             c.Score,
		Stage:             lovemeter.StageOf(c.Score),
		Streak:            c.Streak,
		LoveBar:           lovemeter.New(c.Score).GetLoveBar(),
		LastInteractionAt: c.LastInteractionAt,
		MoodSubmitted:     submitted,
		RecoveryMode:      c.RecoveryMode,
	}, nil
}

func (s *Impl) ListMemories(ctx context.Context, userID uuid.UUID, page, limit int) ([]*interactionRepo.Memory, error) {
	c, err := s.activeCouple(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxMemoryPage {
		limit = MaxMemoryPage
	}
	return s.logs.ListMemories(ctx, c.ID, (page-1)*limit, limit)
}
