// Package testutil поднимает изолированную базу SQLite в памяти для тестов репозиториев и сервисов.
package testutil

import (
	"strings"
	"testing"

	"github.com/headoffice-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models - все таблицы схемы в порядке создания
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Review{},
		&domain.Candidate{},
		&domain.CandidateNote{},
		&domain.CandidateStageHistory{},
		&domain.CandidateInterview{},
		&domain.CandidateReference{},
		&domain.BackgroundCheck{},
		&domain.OnboardingTask{},
		&domain.DayOneItem{},
		&domain.Policy{},
		&domain.PolicyAcknowledgment{},
		&domain.ProbationPeriod{},
		&domain.ProbationReview{},
		&domain.Notification{},
		&domain.AuditLog{},
		&domain.DomainEvent{},
	}
}

// NewDB открывает отдельную базу в памяти на каждый тест и создаёт схему.
// Единственное соединение гарантирует, что все запросы видят одну и ту же базу.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// SeedUser создаёт пользователя каталога
func SeedUser(t *testing.T, db *gorm.DB, user domain.User) *domain.User {
	t.Helper()

	if user.TenantID == 0 {
		user.TenantID = 1
	}
	if user.Role == "" {
		user.Role = domain.RoleEmployee
	}
	if user.EmploymentStatus == "" {
		user.EmploymentStatus = domain.EmploymentStatusActive
	}
	if user.Email == "" {
		user.Email = strings.ToLower(strings.ReplaceAll(user.FullName, " ", ".")) + "@example.com"
	}
	if user.EmployeeNumber == "" {
		user.EmployeeNumber = "SEED-" + user.Email
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return &user
}
