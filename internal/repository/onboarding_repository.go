package repository

import (
	"context"

	"github.com/headoffice-api/internal/domain"
	"gorm.io/gorm"
)

// OnboardingRepository определяет интерфейс для записей, которые проверяют ворота продвижения:
// рекомендации, проверки биографии, задачи адаптации и расписание первого дня
type OnboardingRepository interface {
	CreateReference(ctx context.Context, ref *domain.CandidateReference) error
	GetReference(ctx context.Context, tenantID, candidateID, id int64) (*domain.CandidateReference, error)
	UpdateReference(ctx context.Context, ref *domain.CandidateReference) error
	ListReferences(ctx context.Context, tenantID, candidateID int64) ([]domain.CandidateReference, error)

	CreateBackgroundCheck(ctx context.Context, check *domain.BackgroundCheck) error
	GetBackgroundCheck(ctx context.Context, tenantID, candidateID, id int64) (*domain.BackgroundCheck, error)
	UpdateBackgroundCheck(ctx context.Context, check *domain.BackgroundCheck) error
	ListBackgroundChecks(ctx context.Context, tenantID, candidateID int64) ([]domain.BackgroundCheck, error)

	CreateTasks(ctx context.Context, tasks []domain.OnboardingTask) error
	GetTask(ctx context.Context, tenantID, candidateID, id int64) (*domain.OnboardingTask, error)
	UpdateTask(ctx context.Context, task *domain.OnboardingTask) error
	ListTasks(ctx context.Context, tenantID, candidateID int64) ([]domain.OnboardingTask, error)

	CreateDayOneItems(ctx context.Context, items []domain.DayOneItem) error
	ListDayOneItems(ctx context.Context, tenantID, candidateID int64) ([]domain.DayOneItem, error)
}

type onboardingRepository struct {
	db *gorm.DB
}

// NewOnboardingRepository создаёт новый экземпляр репозитория
func NewOnboardingRepository(db *gorm.DB) OnboardingRepository {
	return &onboardingRepository{db: db}
}

func (r *onboardingRepository) CreateReference(ctx context.Context, ref *domain.CandidateReference) error {
	return conn(ctx, r.db).Create(ref).Error
}

func (r *onboardingRepository) GetReference(ctx context.Context, tenantID, candidateID, id int64) (*domain.CandidateReference, error) {
	var ref domain.CandidateReference
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		First(&ref, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrReferenceNotFound)
	}
	return &ref, nil
}

func (r *onboardingRepository) UpdateReference(ctx context.Context, ref *domain.CandidateReference) error {
	return conn(ctx, r.db).Save(ref).Error
}

func (r *onboardingRepository) ListReferences(ctx context.Context, tenantID, candidateID int64) ([]domain.CandidateReference, error) {
	var refs []domain.CandidateReference
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		Order("id ASC").
		Find(&refs).Error
	return refs, err
}

func (r *onboardingRepository) CreateBackgroundCheck(ctx context.Context, check *domain.BackgroundCheck) error {
	return conn(ctx, r.db).Create(check).Error
}

func (r *onboardingRepository) GetBackgroundCheck(ctx context.Context, tenantID, candidateID, id int64) (*domain.BackgroundCheck, error) {
	var check domain.BackgroundCheck
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		First(&check, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrBackgroundCheckNotFound)
	}
	return &check, nil
}

func (r *onboardingRepository) UpdateBackgroundCheck(ctx context.Context, check *domain.BackgroundCheck) error {
	return conn(ctx, r.db).Save(check).Error
}

func (r *onboardingRepository) ListBackgroundChecks(ctx context.Context, tenantID, candidateID int64) ([]domain.BackgroundCheck, error) {
	var checks []domain.BackgroundCheck
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		Order("id ASC").
		Find(&checks).Error
	return checks, err
}

func (r *onboardingRepository) CreateTasks(ctx context.Context, tasks []domain.OnboardingTask) error {
	if len(tasks) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&tasks).Error
}

func (r *onboardingRepository) GetTask(ctx context.Context, tenantID, candidateID, id int64) (*domain.OnboardingTask, error) {
	var task domain.OnboardingTask
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		First(&task, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrOnboardingTaskNotFound)
	}
	return &task, nil
}

func (r *onboardingRepository) UpdateTask(ctx context.Context, task *domain.OnboardingTask) error {
	return conn(ctx, r.db).Save(task).Error
}

func (r *onboardingRepository) ListTasks(ctx context.Context, tenantID, candidateID int64) ([]domain.OnboardingTask, error) {
	var tasks []domain.OnboardingTask
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *onboardingRepository) CreateDayOneItems(ctx context.Context, items []domain.DayOneItem) error {
	if len(items) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&items).Error
}

func (r *onboardingRepository) ListDayOneItems(ctx context.Context, tenantID, candidateID int64) ([]domain.DayOneItem, error) {
	var items []domain.DayOneItem
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		Order("sort_order ASC, id ASC").
		Find(&items).Error
	return items, err
}
