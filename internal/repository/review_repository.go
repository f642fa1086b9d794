package repository

import (
	"context"
	"time"

	"github.com/headoffice-api/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewFilter - параметры выборки оценок
type ReviewFilter struct {
	EmployeeIDs   []int64
	From          *time.Time
	To            *time.Time
	CommittedOnly bool
}

// ReviewRepository определяет интерфейс для работы с недельными оценками
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Review, error)
	GetForUpdate(ctx context.Context, tenantID, id int64) (*domain.Review, error)
	UpdateContent(ctx context.Context, review *domain.Review, draftOnly bool) (bool, error)
	FindPair(ctx context.Context, tenantID, employeeID int64, weekEnding time.Time) (self, manager *domain.Review, err error)
	LockPair(ctx context.Context, tenantID, employeeID int64, weekEnding time.Time) (self, manager *domain.Review, err error)
	MarkCommitted(ctx context.Context, tenantID, id int64, at time.Time) (bool, error)
	MarkUncommitted(ctx context.Context, tenantID, id int64) (bool, error)
	List(ctx context.Context, tenantID int64, filter ReviewFilter) ([]domain.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository создаёт новый экземпляр репозитория
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create вставляет оценку; повтор для той же пары (сотрудник, неделя, вид) даёт ErrDuplicateRecord
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	if err := conn(ctx, r.db).Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRecord
		}
		return err
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Review, error) {
	var review domain.Review
	err := conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&review, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrReviewNotFound)
	}
	return &review, nil
}

func (r *reviewRepository) GetForUpdate(ctx context.Context, tenantID, id int64) (*domain.Review, error) {
	var review domain.Review
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).
		First(&review, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrReviewNotFound)
	}
	return &review, nil
}

// reviewContentColumns - поля, которые правит автор; флаг подтверждения сюда не входит
var reviewContentColumns = []string{
	"tasks_completed", "work_volume", "problem_solving", "communication", "leadership",
	"goals", "achievements", "areas_for_improvement", "skip_week", "skip_reason", "updated_at",
}

// UpdateContent записывает только содержимое оценки. С draftOnly строка меняется,
// лишь пока она не подтверждена; false - условие не выполнено.
func (r *reviewRepository) UpdateContent(ctx context.Context, review *domain.Review, draftOnly bool) (bool, error) {
	query := conn(ctx, r.db).
		Model(&domain.Review{}).
		Where("tenant_id = ? AND id = ?", review.TenantID, review.ID)
	if draftOnly {
		query = query.Where("is_committed = ?", false)
	}

	review.UpdatedAt = time.Now().UTC()
	result := query.Select(reviewContentColumns).Updates(review)
	return result.RowsAffected == 1, result.Error
}

func (r *reviewRepository) FindPair(ctx context.Context, tenantID, employeeID int64, weekEnding time.Time) (*domain.Review, *domain.Review, error) {
	return r.pair(conn(ctx, r.db), tenantID, employeeID, weekEnding)
}

// LockPair блокирует обе строки пары до конца транзакции, чтобы два
// одновременных подтверждения не пропустили момент раскрытия
func (r *reviewRepository) LockPair(ctx context.Context, tenantID, employeeID int64, weekEnding time.Time) (*domain.Review, *domain.Review, error) {
	return r.pair(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, employeeID, weekEnding)
}

func (r *reviewRepository) pair(query *gorm.DB, tenantID, employeeID int64, weekEnding time.Time) (*domain.Review, *domain.Review, error) {
	var rows []domain.Review
	err := query.
		Where("tenant_id = ? AND employee_id = ? AND review_date = ?", tenantID, employeeID, datatypes.Date(weekEnding)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	var self, manager *domain.Review
	for i := range rows {
		if rows[i].IsSelfAssessment {
			self = &rows[i]
		} else {
			manager = &rows[i]
		}
	}
	return self, manager, nil
}

// MarkCommitted атомарно подтверждает черновик; false - оценка уже подтверждена
func (r *reviewRepository) MarkCommitted(ctx context.Context, tenantID, id int64, at time.Time) (bool, error) {
	result := conn(ctx, r.db).
		Model(&domain.Review{}).
		Where("tenant_id = ? AND id = ? AND is_committed = ?", tenantID, id, false).
		Updates(map[string]any{"is_committed": true, "committed_at": at})
	return result.RowsAffected == 1, result.Error
}

func (r *reviewRepository) MarkUncommitted(ctx context.Context, tenantID, id int64) (bool, error) {
	result := conn(ctx, r.db).
		Model(&domain.Review{}).
		Where("tenant_id = ? AND id = ? AND is_committed = ?", tenantID, id, true).
		Updates(map[string]any{"is_committed": false, "committed_at": nil})
	return result.RowsAffected == 1, result.Error
}

func (r *reviewRepository) List(ctx context.Context, tenantID int64, filter ReviewFilter) ([]domain.Review, error) {
	query := conn(ctx, r.db).Where("tenant_id = ?", tenantID)

	if filter.EmployeeIDs != nil {
		if len(filter.EmployeeIDs) == 0 {
			return []domain.Review{}, nil
		}
		query = query.Where("employee_id IN ?", filter.EmployeeIDs)
	}
	if filter.From != nil {
		query = query.Where("review_date >= ?", datatypes.Date(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("review_date <= ?", datatypes.Date(*filter.To))
	}
	if filter.CommittedOnly {
		query = query.Where("is_committed = ?", true)
	}

	var reviews []domain.Review
	err := query.Order("review_date DESC, id ASC").Find(&reviews).Error
	return reviews, err
}
