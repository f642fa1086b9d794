package repository

import (
	"context"

	"github.com/headoffice-api/internal/domain"
	"gorm.io/gorm"
)

// ProbationRepository определяет интерфейс для испытательных сроков
type ProbationRepository interface {
	HasActive(ctx context.Context, tenantID, employeeID int64) (bool, error)
	Create(ctx context.Context, period *domain.ProbationPeriod) error
	ListForEmployee(ctx context.Context, tenantID, employeeID int64) ([]domain.ProbationPeriod, error)
}

type probationRepository struct {
	db *gorm.DB
}

// NewProbationRepository создаёт новый экземпляр репозитория
func NewProbationRepository(db *gorm.DB) ProbationRepository {
	return &probationRepository{db: db}
}

func (r *probationRepository) HasActive(ctx context.Context, tenantID, employeeID int64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&domain.ProbationPeriod{}).
		Where("tenant_id = ? AND employee_id = ? AND status = ?", tenantID, employeeID, domain.ProbationActive).
		Count(&count).Error
	return count > 0, err
}

// Create сохраняет период вместе с контрольными точками (ассоциация Reviews)
func (r *probationRepository) Create(ctx context.Context, period *domain.ProbationPeriod) error {
	return conn(ctx, r.db).Create(period).Error
}

func (r *probationRepository) ListForEmployee(ctx context.Context, tenantID, employeeID int64) ([]domain.ProbationPeriod, error) {
	var periods []domain.ProbationPeriod
	err := conn(ctx, r.db).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_date ASC")
		}).
		Where("tenant_id = ? AND employee_id = ?", tenantID, employeeID).
		Order("id ASC").
		Find(&periods).Error
	return periods, err
}
