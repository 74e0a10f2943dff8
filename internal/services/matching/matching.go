package matching

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/daykey"
	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/match_request"
	notificationRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/notification"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/user"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/notification"
	"github.com/MyelinBots/bloom-go/internal/services/pairing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DailyRequestCap  = 20
	MaxMessageLength = 140
)

type Response string

const (
	Accepted Response = "Accepted"
	Rejected Response = "Rejected"
)

type RespondResult struct {
	Status   match_request.Status `json:"status"`
	CoupleID *uuid.UUID           `json:"couple_id,omitempty"`
}

type Service interface {
	SendRequest(ctx context.Context, fromID, toID uuid.UUID, message string) (*match_request.MatchRequest, error)
	// Respond accepts or rejects a pending request addressed to userID.
	// Acceptance re-checks that both users are still single.
	Respond(ctx context.Context, userID, requestID uuid.UUID, resp Response) (RespondResult, error)
}

type Impl struct {
	db       *db.DB
	users    user.UserRepository
	requests match_request.MatchRequestRepository
	pairing  pairing.Service
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
	requests match_request.MatchRequestRepository,
	pairingSvc pairing.Service,
	notifier notification.Notifier,
	baseLog *logger.Logger,
	opts ...Option,
) *Impl {
	s := &Impl{
		db:       database,
		users:    users,
		requests: requests,
		pairing:  pairingSvc,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		log:      baseLog.With("service", "MatchingService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func eligible(u *user.User) bool {
	return u != nil && u.IsSingle() && u.IsDiscoverable
}

func (s *Impl) SendRequest(ctx context.Context, fromID, toID uuid.UUID, message string) (*match_request.MatchRequest, error) {
	if fromID == toID {
		return nil, apperrors.ErrRequestToSelf
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, apperrors.Validation("message cannot exceed 140 characters")
	}

	now := s.now().UTC()
	var req *match_request.MatchRequest
	err := s.db.Transact(ctx, func(tx *gorm.DB) error {
		from, err := s.users.GetByIDForUpdate(ctx, tx, fromID)
		if err != nil {
			return err
		}
		if !eligible(from) {
			return apperrors.ErrNotEligible
		}

		sent, err := s.requests.CountSentOn(ctx, tx, fromID, daykey.Of(now))
		if err != nil {
			return err
		}
		if sent >= DailyRequestCap {
			return apperrors.ErrRequestCap
		}

		reverse, err := s.requests.FindPending(ctx, tx, toID, fromID, now)
		if err != nil {
			return err
		}
		if reverse != nil {
			return apperrors.ErrReversePending
		}

		to, err := s.users.GetByID(ctx, tx, toID)
		if err != nil {
			return err
		}
		if !eligible(to) {
			return apperrors.ErrTargetUnavailable
		}

		existing, err := s.requests.FindPending(ctx, tx, fromID, toID, now)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.ErrRequestPending
		}

		if err := s.requests.ExpireStalePair(ctx, tx, fromID, toID, now); err != nil {
			return err
		}

		r := &match_request.MatchRequest{
			FromUserID: fromID,
			ToUserID:   toID,
			Status:     match_request.StatusPending,
			Message:    message,
			Day:        daykey.Of(now),
			ExpiresAt:  now.Add(match_request.Expiry),
		}
		if err := s.requests.Create(ctx, tx, r); err != nil {
			if db.IsDuplicate(err) {
				return apperrors.ErrRequestPending
			}
			return err
		}
		req = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, toID, notificationRepo.TypeMatchRequest, "Someone wants to connect with you.", req.ID)
	return req, nil
}

func (s *Impl) Respond(ctx context.Context, userID, requestID uuid.UUID, resp Response) (RespondResult, error) {
	if resp != Accepted && resp != Rejected {
		return RespondResult{}, apperrors.ErrInvalidResponse
	}

	now := s.now().UTC()
	var (
		result RespondResult
		fromID uuid.UUID
	)
	err := s.db.Transact(ctx, func(tx *gorm.DB) error {
		r, err := s.requests.GetByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if r == nil || r.Status != match_request.StatusPending || r.Expired(now) {
			return apperrors.ErrRequestNotFound
		}
		if r.ToUserID != userID {
			return apperrors.ErrRequestNotYours
		}
		fromID = r.FromUserID

		if resp == Rejected {
			if _, err := s.requests.SetStatus(ctx, tx, r.ID, match_request.StatusRejected); err != nil {
				return err
			}
			result = RespondResult{Status: match_request.StatusRejected}
			return nil
		}

		// time may have passed since the request: both must still be single
		for _, id := range []uuid.UUID{r.FromUserID, r.ToUserID} {
			u, err := s.users.GetByIDForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			if u == nil || !u.IsSingle() {
				return apperrors.ErrNoLongerSingle
			}
		}

		c, err := s.pairing.Bond(ctx, tx, r.FromUserID, r.ToUserID)
		if err != nil {
			return err
		}
		updated, err := s.requests.SetStatus(ctx, tx, r.ID, match_request.StatusAccepted)
		if err != nil {
			return err
		}
		if !updated {
			return db.ErrStaleWrite
		}
		coupleID := c.ID
		result = RespondResult{Status: match_request.StatusAccepted, CoupleID: &coupleID}
		return nil
	})
	if err != nil {
		return RespondResult{}, err
	}

	if result.Status == match_request.StatusAccepted {
		s.log.Info("match accepted", "request_id", requestID, "couple_id", *result.CoupleID)
		s.notify(ctx, fromID, notificationRepo.TypeMatchAccepted, "It's a match! Your request was accepted.", *result.CoupleID)
	}
	return result, nil
}

func (s *Impl) notify(ctx context.Context, userID uuid.UUID, typ notificationRepo.Type, msg string, related uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, userID, typ, msg, &related); err != nil {
		s.log.Warn("match notification failed", "user_id", userID, "type", typ, "error", err)
	}
}
