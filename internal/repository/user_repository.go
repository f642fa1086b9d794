package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/headoffice-api/internal/domain"
	"gorm.io/gorm"
)

const (
	employeeNumberPrefix   = "EMP"
	employeeNumberAttempts = 5
)

// UserRepository определяет интерфейс каталога сотрудников
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	CreateWithEmployeeNumber(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.User, error)
	IsManagerOf(ctx context.Context, tenantID, managerID, employeeID int64) (bool, error)
	ListDirectReports(ctx context.Context, tenantID, managerID int64) ([]domain.User, error)
	UpdateEmploymentStatus(ctx context.Context, tenantID, id int64, status domain.EmploymentStatus) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository создаёт новый экземпляр репозитория
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := conn(ctx, r.db).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRecord
		}
		return err
	}
	return nil
}

// CreateWithEmployeeNumber присваивает следующий номер EMP### и вставляет запись.
// Уникальный индекс (tenant_id, employee_number) отсекает гонку; при конфликте
// вставка повторяется в точке сохранения с перечитанным максимумом.
func (r *userRepository) CreateWithEmployeeNumber(ctx context.Context, user *domain.User) error {
	for attempt := 0; attempt < employeeNumberAttempts; attempt++ {
		number, err := r.nextEmployeeNumber(ctx, user.TenantID)
		if err != nil {
			return err
		}
		user.ID = 0
		user.EmployeeNumber = number

		err = conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
			return tx.Create(user).Error
		})
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
	}
	return domain.ErrEmployeeNumberExhausted
}

func (r *userRepository) nextEmployeeNumber(ctx context.Context, tenantID int64) (string, error) {
	var numbers []string
	err := conn(ctx, r.db).
		Model(&domain.User{}).
		Where("tenant_id = ? AND employee_number LIKE ?", tenantID, employeeNumberPrefix+"%").
		Pluck("employee_number", &numbers).Error
	if err != nil {
		return "", err
	}

	highest := 0
	for _, number := range numbers {
		n, err := strconv.Atoi(strings.TrimPrefix(number, employeeNumberPrefix))
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", employeeNumberPrefix, highest+1), nil
}

func (r *userRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.User, error) {
	var user domain.User
	err := conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&user, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrEmployeeNotFound)
	}
	return &user, nil
}

func (r *userRepository) IsManagerOf(ctx context.Context, tenantID, managerID, employeeID int64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&domain.User{}).
		Where("tenant_id = ? AND id = ? AND manager_id = ?", tenantID, employeeID, managerID).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ListDirectReports(ctx context.Context, tenantID, managerID int64) ([]domain.User, error) {
	var users []domain.User
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND manager_id = ?", tenantID, managerID).
		Order("full_name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) UpdateEmploymentStatus(ctx context.Context, tenantID, id int64, status domain.EmploymentStatus) error {
	result := conn(ctx, r.db).
		Model(&domain.User{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("employment_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}
