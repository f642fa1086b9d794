package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/headoffice-api/internal/access"
	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/onboarding"
	"github.com/headoffice-api/internal/repository"
	"github.com/headoffice-api/internal/testutil"
	"gorm.io/gorm"
)

const testTenant int64 = 1

// testEnv - сервисы поверх SQLite в памяти с общими часами
type testEnv struct {
	db    *gorm.DB
	clock time.Time

	users      repository.UserRepository
	candidates repository.CandidateRepository
	records    repository.OnboardingRepository
	policies   repository.PolicyRepository

	reviews       *reviewService
	recruitment   *recruitmentService
	candidateRecs *candidateRecordsService
	promotion     *promotionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	template, err := onboarding.Default()
	if err != nil {
		t.Fatalf("failed to load onboarding template: %v", err)
	}

	env := &testEnv{
		db:    db,
		clock: time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.clock }

	tx := repository.NewTransactor(db)
	env.users = repository.NewUserRepository(db)
	env.candidates = repository.NewCandidateRepository(db)
	env.records = repository.NewOnboardingRepository(db)
	env.policies = repository.NewPolicyRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	probationRepo := repository.NewProbationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	checker := access.NewChecker(env.users)
	audit := NewAuditLogger(repository.NewAuditRepository(db), logger)
	provisioner := NewProvisioner(env.users, env.candidates, env.records, outboxRepo, template)

	env.reviews = NewReviewService(tx, reviewRepo, env.users, notificationRepo, outboxRepo, checker, audit, logger).(*reviewService)
	env.reviews.now = clock
	env.recruitment = NewRecruitmentService(tx, env.candidates, outboxRepo, provisioner, checker, audit).(*recruitmentService)
	env.recruitment.now = clock
	env.candidateRecs = NewCandidateRecordsService(env.candidates, env.records, env.policies, checker, audit).(*candidateRecordsService)
	env.candidateRecs.now = clock
	env.promotion = NewPromotionService(tx, env.candidates, env.records, env.policies, probationRepo, env.users, outboxRepo, provisioner, checker, audit).(*promotionService)
	env.promotion.now = clock

	return env
}

// seedPerson создаёт пользователя, зарегистрированного задолго до тестовой недели
func (e *testEnv) seedPerson(t *testing.T, name string, role domain.Role, managerID *int64) domain.Actor {
	t.Helper()
	user := testutil.SeedUser(t, e.db, domain.User{
		FullName:  name,
		Role:      role,
		ManagerID: managerID,
		CreatedAt: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
	})
	return domain.Actor{UserID: user.ID, TenantID: testTenant, Role: role}
}

func (e *testEnv) countEvents(t *testing.T, eventType string) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&domain.DomainEvent{}).Where("event_type = ?", eventType).Count(&count).Error; err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	return count
}

func (e *testEnv) countNotifications(t *testing.T, userID int64, notificationType string) int64 {
	t.Helper()
	var count int64
	err := e.db.Model(&domain.Notification{}).
		Where("user_id = ? AND type = ?", userID, notificationType).
		Count(&count).Error
	if err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	return count
}

func assertKind(t *testing.T, err error, want domain.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := domain.KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}

func assertMetric(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected %.2f, got nil", name, want)
	}
	if *got != want {
		t.Errorf("%s: expected %.2f, got %v", name, want, *got)
	}
}

func intp(v int) *int { return &v }

func int64p(v int64) *int64 { return &v }

func strp(v string) *string { return &v }

func boolp(v bool) *bool { return &v }
