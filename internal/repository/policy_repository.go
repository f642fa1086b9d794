package repository

import (
	"context"

	"github.com/headoffice-api/internal/domain"
	"gorm.io/gorm"
)

// PolicyRepository определяет интерфейс для политик и их подтверждений
type PolicyRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Policy, error)
	ListRequiringAcknowledgment(ctx context.Context, tenantID int64) ([]domain.Policy, error)
	AcknowledgedPolicyIDs(ctx context.Context, tenantID, candidateID int64) (map[int64]bool, error)
	Acknowledge(ctx context.Context, ack *domain.PolicyAcknowledgment) error
}

type policyRepository struct {
	db *gorm.DB
}

// NewPolicyRepository создаёт новый экземпляр репозитория
func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db: db}
}

func (r *policyRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Policy, error) {
	var policy domain.Policy
	err := conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&policy, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrPolicyNotFound)
	}
	return &policy, nil
}

// ListRequiringAcknowledgment возвращает опубликованные политики, требующие подтверждения
func (r *policyRepository) ListRequiringAcknowledgment(ctx context.Context, tenantID int64) ([]domain.Policy, error) {
	var policies []domain.Policy
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND status = ? AND requires_acknowledgment = ?", tenantID, domain.PolicyPublished, true).
		Order("id ASC").
		Find(&policies).Error
	return policies, err
}

func (r *policyRepository) AcknowledgedPolicyIDs(ctx context.Context, tenantID, candidateID int64) (map[int64]bool, error) {
	var ids []int64
	err := conn(ctx, r.db).
		Model(&domain.PolicyAcknowledgment{}).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		Pluck("policy_id", &ids).Error
	if err != nil {
		return nil, err
	}

	acked := make(map[int64]bool, len(ids))
	for _, id := range ids {
		acked[id] = true
	}
	return acked, nil
}

func (r *policyRepository) Acknowledge(ctx context.Context, ack *domain.PolicyAcknowledgment) error {
	if err := conn(ctx, r.db).Create(ack).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAcknowledgmentExists
		}
		return err
	}
	return nil
}
