package repository

import (
	"context"

	"github.com/headoffice-api/internal/domain"
	"gorm.io/gorm"
)

// AuditRepository определяет интерфейс журнала аудита (только добавление)
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListForResource(ctx context.Context, tenantID int64, resourceType string, resourceID int64) ([]domain.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository создаёт новый экземпляр репозитория
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	return conn(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) ListForResource(ctx context.Context, tenantID int64, resourceType string, resourceID int64) ([]domain.AuditLog, error) {
	var entries []domain.AuditLog
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND resource_type = ? AND resource_id = ?", tenantID, resourceType, resourceID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
