package notification

import (
	"context"

	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	CountForDay(ctx context.Context, userID uuid.UUID, day string) (int64, error)
	// GetByID returns nil, nil when the notification does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*Notification, int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	PurgeBefore(ctx context.Context, day string) (int64, error)
}

type notificationRepository struct {
	db  *db.DB
	log *logger.Logger
}

func NewNotificationRepository(database *db.DB, baseLog *logger.Logger) NotificationRepository {
	return &notificationRepository{db: database, log: baseLog.With("repo", "NotificationRepository")}
}

func (r *notificationRepository) Create(ctx context.Context, n *Notification) error {
	return r.db.Conn(ctx, nil).Create(n).Error
}

func (r *notificationRepository) CountForDay(ctx context.Context, userID uuid.UUID, day string) (int64, error) {
	var count int64
	err := r.db.Conn(ctx, nil).
		Model(&Notification{}).
		Where("user_id = ? AND day = ?", userID, day).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var n Notification
	if err := r.db.Conn(ctx, nil).Where("id = ?", id).First(&n).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*Notification, int64, error) {
	var total int64
	if err := r.db.Conn(ctx, nil).
		Model(&Notification{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*Notification
	err := r.db.Conn(ctx, nil).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Conn(ctx, nil).
		Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.db.Conn(ctx, nil).
		Model(&Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.Conn(ctx, nil).
		Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) PurgeBefore(ctx context.Context, day string) (int64, error) {
	res := r.db.Conn(ctx, nil).Where("day < ?", day).Delete(&Notification{})
	return res.RowsAffected, res.Error
}
