package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/daykey"
	notificationRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/notification"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/google/uuid"
)

const (
	DefaultDayCap = 3
	MaxPageSize   = 50
)

// Sender delivers a stored notification to the user's devices. Delivery is
// fire-and-forget; failures never undo the stored record.
type Sender interface {
	Send(ctx context.Context, n *notificationRepo.Notification) error
}

// Notifier is the narrow surface other services use to raise alerts.
type Notifier interface {
	// Notify stores an alert for userID unless the user's daily cap is
	// already reached, in which case sent is false and err is nil.
	Notify(ctx context.Context, userID uuid.UUID, typ notificationRepo.Type, message string, relatedID *uuid.UUID) (sent bool, err error)
	// NotifyAt is Notify with the day taken from at instead of the clock,
	// for batch runs that work against a fixed reference time.
	NotifyAt(ctx context.Context, at time.Time, userID uuid.UUID, typ notificationRepo.Type, message string, relatedID *uuid.UUID) (sent bool, err error)
}

type Page struct {
	Items       []*notificationRepo.Notification `json:"notifications"`
	Total       int64                            `json:"total"`
	UnreadCount int64                            `json:"unread_count"`
	Page        int                              `json:"page"`
	Limit       int                              `json:"limit"`
}

type Service interface {
	Notifier
	List(ctx context.Context, userID uuid.UUID, page, limit int) (Page, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Impl struct {
	repo   notificationRepo.NotificationRepository
	sender Sender
	dayCap int
	now    func() time.Time
	log    *logger.Logger
}

type Option func(*Impl)

func WithSender(s Sender) Option {
	return func(i *Impl) { i.sender = s }
}

func WithDayCap(n int) Option {
	return func(i *Impl) {
		if n > 0 {
			i.dayCap = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Impl) {
		if now != nil {
			i.now = now
		}
	}
}

func New(repo notificationRepo.NotificationRepository, baseLog *logger.Logger, opts ...Option) *Impl {
	s := &Impl{
		repo:   repo,
		dayCap: DefaultDayCap,
		now:    func() time.Time { return time.Now().UTC() },
		log:    baseLog.With("service", "NotificationService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify must not be called from inside an open transaction: it uses its own
// connection and may call out to the Sender.
func (s *Impl) Notify(ctx context.Context, userID uuid.UUID, typ notificationRepo.Type, message string, relatedID *uuid.UUID) (bool, error) {
	return s.NotifyAt(ctx, s.now(), userID, typ, message, relatedID)
}

func (s *Impl) NotifyAt(ctx context.Context, at time.Time, userID uuid.UUID, typ notificationRepo.Type, message string, relatedID *uuid.UUID) (bool, error) {
	day := daykey.Of(at)

	count, err := s.repo.CountForDay(ctx, userID, day)
	if err != nil {
		return false, fmt.Errorf("count notifications: %w", err)
	}
	if count >= int64(s.dayCap) {
		s.log.Debug("daily notification cap reached", "user_id", userID, "type", typ, "cap", s.dayCap)
		return false, nil
	}

	n := &notificationRepo.Notification{
		UserID:    userID,
		Type:      typ,
		Message:   message,
		RelatedID: relatedID,
		Day:       day,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return false, fmt.Errorf("create notification: %w", err)
	}

	if s.sender != nil {
		if err := s.sender.Send(ctx, n); err != nil {
			s.log.Warn("notification delivery failed", "notification_id", n.ID, "user_id", userID, "error", err)
		}
	}
	return true, nil
}

func (s *Impl) List(ctx context.Context, userID uuid.UUID, page, limit int) (Page, error) {
	page, limit = clampPage(page, limit)
	items, total, err := s.repo.List(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return Page{}, err
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, UnreadCount: unread, Page: page, Limit: limit}, nil
}

func (s *Impl) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return apperrors.ErrNotificationGone
	}
	if n.UserID != userID {
		return apperrors.ErrNotificationAccess
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *Impl) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
