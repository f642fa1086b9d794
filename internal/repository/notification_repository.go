package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/headoffice-api/internal/domain"
	"gorm.io/gorm"
)

// NotificationRepository определяет интерфейс уведомлений
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ExistsSince(ctx context.Context, tenantID, userID int64, notificationType string, since time.Time) (bool, error)
	ExistsForEvent(ctx context.Context, tenantID, userID int64, eventID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, tenantID, userID int64) ([]domain.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository создаёт новый экземпляр репозитория
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return conn(ctx, r.db).Create(n).Error
}

// ExistsSince проверяет, получал ли пользователь уведомление этого типа начиная с since
func (r *notificationRepository) ExistsSince(ctx context.Context, tenantID, userID int64, notificationType string, since time.Time) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&domain.Notification{}).
		Where("tenant_id = ? AND user_id = ? AND type = ? AND created_at >= ?", tenantID, userID, notificationType, since).
		Count(&count).Error
	return count > 0, err
}

// ExistsForEvent - получатель уже уведомлён об этом событии при прошлой попытке доставки
func (r *notificationRepository) ExistsForEvent(ctx context.Context, tenantID, userID int64, eventID uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&domain.Notification{}).
		Where("tenant_id = ? AND user_id = ? AND event_id = ?", tenantID, userID, eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *notificationRepository) ListForUser(ctx context.Context, tenantID, userID int64) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	return notifications, err
}
