package service

import (
	"context"
	"errors"
	"testing"

	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/kpi"
)

const exampleWeek = "2024-06-14"

func ratings(tasks, volume, solving, communication, leadership int) dto.Ratings {
	return dto.Ratings{
		TasksCompleted: intp(tasks),
		WorkVolume:     intp(volume),
		ProblemSolving: intp(solving),
		Communication:  intp(communication),
		Leadership:     intp(leadership),
	}
}

// reviewTeam - руководитель, его подчинённый и посторонний сотрудник
type reviewTeam struct {
	manager  domain.Actor
	employee domain.Actor
	outsider domain.Actor
	admin    domain.Actor
}

func seedReviewTeam(t *testing.T, env *testEnv) reviewTeam {
	t.Helper()
	manager := env.seedPerson(t, "Maria Manager", domain.RoleManager, nil)
	employee := env.seedPerson(t, "Eve Employee", domain.RoleEmployee, int64p(manager.UserID))
	outsider := env.seedPerson(t, "Oscar Outsider", domain.RoleEmployee, nil)
	admin := env.seedPerson(t, "Ada Admin", domain.RoleAdmin, nil)
	return reviewTeam{manager: manager, employee: employee, outsider: outsider, admin: admin}
}

func createSelf(t *testing.T, env *testEnv, actor domain.Actor, r dto.Ratings) *dto.ReviewResponse {
	t.Helper()
	review, err := env.reviews.CreateSelfReflection(context.Background(), actor, &dto.CreateSelfReflectionRequest{
		ReviewDate: exampleWeek,
		Ratings:    r,
		Goals:      "Ship the billing export",
	})
	if err != nil {
		t.Fatalf("CreateSelfReflection: %v", err)
	}
	return review
}

func createManager(t *testing.T, env *testEnv, actor domain.Actor, employeeID int64, r dto.Ratings) *dto.ReviewResponse {
	t.Helper()
	review, err := env.reviews.CreateManagerReview(context.Background(), actor, &dto.CreateManagerReviewRequest{
		EmployeeID: employeeID,
		ReviewDate: exampleWeek,
		Ratings:    r,
		Goals:      "Own the billing export end to end",
	})
	if err != nil {
		t.Fatalf("CreateManagerReview: %v", err)
	}
	return review
}

func TestReviewFlow_BlindUntilBothCommitted(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	self := createSelf(t, env, team.employee, ratings(8, 7, 9, 6, 5))
	if self.TasksCompleted != nil || self.Metrics != nil {
		t.Error("expected no numbers in the draft status view")
	}

	commit, err := env.reviews.Commit(ctx, team.employee, self.ID, SideSelf)
	if err != nil {
		t.Fatalf("Commit self: %v", err)
	}
	if commit.BothCommitted || commit.SelfReflection != nil || commit.ManagerReview != nil {
		t.Fatalf("expected no reveal after the first commit, got %+v", commit)
	}

	status, err := env.reviews.GetMyReflectionStatus(ctx, team.employee)
	if err != nil {
		t.Fatalf("GetMyReflectionStatus: %v", err)
	}
	if status.WeekEnding != exampleWeek {
		t.Errorf("expected week ending %s, got %s", exampleWeek, status.WeekEnding)
	}
	if status.BothCommitted || status.ManagerReviewCommitted {
		t.Errorf("expected nothing revealed yet, got %+v", status)
	}
	if status.SelfReflection == nil || !status.SelfReflection.IsCommitted || status.SelfReflection.Metrics != nil {
		t.Errorf("expected committed self-reflection without metrics, got %+v", status.SelfReflection)
	}

	// Руководитель до раскрытия видит только статус, текст скрыт
	seen, err := env.reviews.GetReview(ctx, team.manager, self.ID)
	if err != nil {
		t.Fatalf("GetReview by manager: %v", err)
	}
	if seen.TasksCompleted != nil || seen.Metrics != nil {
		t.Error("manager must not see self ratings before reveal")
	}
	if seen.Goals != dto.RedactedText || !seen.TextRedacted {
		t.Errorf("expected redacted goals, got %q", seen.Goals)
	}

	managerReview := createManager(t, env, team.manager, team.employee.UserID, ratings(7, 8, 8, 7, 6))
	if managerReview.TasksCompleted == nil || *managerReview.TasksCompleted != 7 {
		t.Error("author should see own ratings in the draft")
	}
	if managerReview.Metrics != nil {
		t.Error("author must not see metrics before reveal")
	}

	if _, err := env.reviews.GetReview(ctx, team.employee, managerReview.ID); !errors.Is(err, domain.ErrReviewNotFound) {
		t.Fatalf("expected manager review hidden from employee, got %v", err)
	}

	commit, err = env.reviews.Commit(ctx, team.manager, managerReview.ID, SideManager)
	if err != nil {
		t.Fatalf("Commit manager: %v", err)
	}
	if !commit.BothCommitted {
		t.Fatal("expected reveal on the second commit")
	}
	assertMetric(t, "self velocity", commit.SelfReflection.Metrics.Velocity, 8)
	assertMetric(t, "self friction", commit.SelfReflection.Metrics.Friction, 7)
	assertMetric(t, "self cohesion", commit.SelfReflection.Metrics.Cohesion, 6.67)
	assertMetric(t, "manager velocity", commit.ManagerReview.Metrics.Velocity, 7.67)
	assertMetric(t, "manager friction", commit.ManagerReview.Metrics.Friction, 7.34)
	assertMetric(t, "manager cohesion", commit.ManagerReview.Metrics.Cohesion, 7)

	if got := env.countEvents(t, domain.EventReviewsRevealed); got != 1 {
		t.Errorf("expected 1 reveal event, got %d", got)
	}

	status, err = env.reviews.GetMyReflectionStatus(ctx, team.employee)
	if err != nil {
		t.Fatalf("GetMyReflectionStatus: %v", err)
	}
	if !status.BothCommitted || status.ManagerReview == nil || status.ManagerReview.Metrics == nil {
		t.Fatalf("expected revealed pair, got %+v", status)
	}

	// После раскрытия числа видны руководителю, текст самооценки по-прежнему скрыт
	seen, err = env.reviews.GetReview(ctx, team.manager, self.ID)
	if err != nil {
		t.Fatalf("GetReview by manager: %v", err)
	}
	if seen.Metrics == nil || !seen.Revealed {
		t.Error("expected metrics after reveal")
	}
	if seen.Goals != dto.RedactedText {
		t.Errorf("expected self text to stay private, got %q", seen.Goals)
	}

	if _, err := env.reviews.GetReview(ctx, team.outsider, self.ID); !errors.Is(err, domain.ErrNotManager) {
		t.Errorf("expected outsider to be refused, got %v", err)
	}
}

func TestCreateSelfReflection_Validation(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	createSelf(t, env, team.employee, ratings(5, 5, 5, 5, 5))

	tests := []struct {
		name    string
		req     dto.CreateSelfReflectionRequest
		wantErr error
	}{
		{
			name:    "not a friday",
			req:     dto.CreateSelfReflectionRequest{ReviewDate: "2024-06-13"},
			wantErr: domain.ErrInvalidWeekEnding,
		},
		{
			name:    "rating out of range",
			req:     dto.CreateSelfReflectionRequest{ReviewDate: "2024-06-21", Ratings: dto.Ratings{Leadership: intp(11)}},
			wantErr: domain.ErrRatingOutOfRange,
		},
		{
			name:    "skip without reason",
			req:     dto.CreateSelfReflectionRequest{ReviewDate: "2024-06-21", SkipWeek: true},
			wantErr: domain.ErrSkipReasonRequired,
		},
		{
			name:    "duplicate week",
			req:     dto.CreateSelfReflectionRequest{ReviewDate: exampleWeek},
			wantErr: domain.ErrSelfReflectionExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.reviews.CreateSelfReflection(ctx, team.employee, &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	_, err := env.reviews.CreateSelfReflection(ctx, team.employee, &dto.CreateSelfReflectionRequest{ReviewDate: "14/06/2024"})
	assertKind(t, err, domain.KindValidation)
}

func TestCreateManagerReview_Rules(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	_, err := env.reviews.CreateManagerReview(ctx, team.outsider, &dto.CreateManagerReviewRequest{
		EmployeeID: team.employee.UserID,
		ReviewDate: exampleWeek,
	})
	if !errors.Is(err, domain.ErrNotManager) {
		t.Errorf("expected ErrNotManager, got %v", err)
	}

	_, err = env.reviews.CreateManagerReview(ctx, team.manager, &dto.CreateManagerReviewRequest{
		EmployeeID: team.manager.UserID,
		ReviewDate: exampleWeek,
	})
	if !errors.Is(err, domain.ErrSelfManagerReview) {
		t.Errorf("expected ErrSelfManagerReview, got %v", err)
	}

	_, err = env.reviews.CreateManagerReview(ctx, team.manager, &dto.CreateManagerReviewRequest{
		EmployeeID: 9999,
		ReviewDate: exampleWeek,
	})
	if !errors.Is(err, domain.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}

	createManager(t, env, team.manager, team.employee.UserID, ratings(6, 6, 6, 6, 6))
	_, err = env.reviews.CreateManagerReview(ctx, team.manager, &dto.CreateManagerReviewRequest{
		EmployeeID: team.employee.UserID,
		ReviewDate: exampleWeek,
	})
	if !errors.Is(err, domain.ErrManagerReviewExists) {
		t.Errorf("expected ErrManagerReviewExists, got %v", err)
	}
}

func TestCommit_Rules(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	self := createSelf(t, env, team.employee, ratings(8, 7, 9, 6, 5))

	if _, err := env.reviews.Commit(ctx, team.employee, self.ID, SideManager); !errors.Is(err, domain.ErrNotManagerReview) {
		t.Errorf("expected ErrNotManagerReview, got %v", err)
	}
	if _, err := env.reviews.Commit(ctx, team.manager, self.ID, SideSelf); !errors.Is(err, domain.ErrNotReviewOwner) {
		t.Errorf("expected ErrNotReviewOwner, got %v", err)
	}
	if _, err := env.reviews.Commit(ctx, team.employee, 9999, SideSelf); !errors.Is(err, domain.ErrReviewNotFound) {
		t.Errorf("expected ErrReviewNotFound, got %v", err)
	}

	if _, err := env.reviews.Commit(ctx, team.employee, self.ID, SideSelf); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := env.reviews.Commit(ctx, team.employee, self.ID, SideSelf); !errors.Is(err, domain.ErrReviewAlreadyCommitted) {
		t.Errorf("expected ErrReviewAlreadyCommitted, got %v", err)
	}
	if got := env.countEvents(t, domain.EventReviewsRevealed); got != 0 {
		t.Errorf("expected no reveal event, got %d", got)
	}
}

func TestUpdateReview_LockedAfterCommit(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	self := createSelf(t, env, team.employee, ratings(5, 5, 5, 5, 5))

	updated, err := env.reviews.UpdateReview(ctx, team.employee, self.ID, &dto.UpdateReviewRequest{
		Ratings: dto.Ratings{TasksCompleted: intp(9)},
		Goals:   strp("  Finish onboarding docs  "),
	})
	if err != nil {
		t.Fatalf("UpdateReview: %v", err)
	}
	if *updated.TasksCompleted != 9 || *updated.WorkVolume != 5 {
		t.Errorf("expected partial update, got tasks=%d volume=%d", *updated.TasksCompleted, *updated.WorkVolume)
	}
	if updated.Goals != "Finish onboarding docs" {
		t.Errorf("expected trimmed goals, got %q", updated.Goals)
	}

	if _, err := env.reviews.UpdateReview(ctx, team.manager, self.ID, &dto.UpdateReviewRequest{}); !errors.Is(err, domain.ErrNotReviewOwner) {
		t.Errorf("expected ErrNotReviewOwner, got %v", err)
	}

	if _, err := env.reviews.Commit(ctx, team.employee, self.ID, SideSelf); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	_, err = env.reviews.UpdateReview(ctx, team.employee, self.ID, &dto.UpdateReviewRequest{Ratings: dto.Ratings{TasksCompleted: intp(1)}})
	if !errors.Is(err, domain.ErrReviewLocked) {
		t.Fatalf("expected ErrReviewLocked, got %v", err)
	}

	// Администратор исправляет подтверждённую оценку, правка попадает в аудит
	fixed, err := env.reviews.UpdateReview(ctx, team.admin, self.ID, &dto.UpdateReviewRequest{Ratings: dto.Ratings{Leadership: intp(6)}})
	if err != nil {
		t.Fatalf("admin UpdateReview: %v", err)
	}
	if *fixed.Leadership != 6 || !fixed.IsCommitted {
		t.Errorf("expected committed review with leadership 6, got %+v", fixed)
	}

	var audits int64
	env.db.Model(&domain.AuditLog{}).Where("resource_type = ? AND resource_id = ?", "review", self.ID).Count(&audits)
	if audits != 1 {
		t.Errorf("expected 1 audit entry, got %d", audits)
	}
}

func TestUncommit_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	self := createSelf(t, env, team.employee, ratings(5, 5, 5, 5, 5))
	if _, err := env.reviews.Uncommit(ctx, team.admin, self.ID); !errors.Is(err, domain.ErrReviewNotCommitted) {
		t.Errorf("expected ErrReviewNotCommitted, got %v", err)
	}

	if _, err := env.reviews.Commit(ctx, team.employee, self.ID, SideSelf); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := env.reviews.Uncommit(ctx, team.employee, self.ID); !errors.Is(err, domain.ErrAdminOnly) {
		t.Errorf("expected ErrAdminOnly, got %v", err)
	}

	reopened, err := env.reviews.Uncommit(ctx, team.admin, self.ID)
	if err != nil {
		t.Fatalf("Uncommit: %v", err)
	}
	if reopened.IsCommitted || reopened.CommittedAt != nil {
		t.Errorf("expected draft after uncommit, got %+v", reopened)
	}
	if got := env.countEvents(t, domain.EventReviewUncommitted); got != 1 {
		t.Errorf("expected 1 uncommit event, got %d", got)
	}

	// Снова черновик: автор может править и подтверждать
	if _, err := env.reviews.UpdateReview(ctx, team.employee, self.ID, &dto.UpdateReviewRequest{Ratings: dto.Ratings{WorkVolume: intp(8)}}); err != nil {
		t.Errorf("expected draft to be editable, got %v", err)
	}
	if _, err := env.reviews.Commit(ctx, team.employee, self.ID, SideSelf); err != nil {
		t.Errorf("expected recommit to succeed, got %v", err)
	}
}

func TestMyReflectionStatus_OverdueReminderOncePerDay(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	status, err := env.reviews.GetMyReflectionStatus(ctx, team.employee)
	if err != nil {
		t.Fatalf("GetMyReflectionStatus: %v", err)
	}
	if !status.IsOverdue {
		t.Fatal("expected previous week to be overdue")
	}
	if status.SelfReflection != nil {
		t.Errorf("expected no self-reflection this week, got %+v", status.SelfReflection)
	}

	if _, err := env.reviews.GetMyReflectionStatus(ctx, team.employee); err != nil {
		t.Fatalf("GetMyReflectionStatus: %v", err)
	}
	if got := env.countNotifications(t, team.employee.UserID, NotificationReflectionOverdue); got != 1 {
		t.Fatalf("expected 1 reminder on the same day, got %d", got)
	}

	// Суббота той же недели - новый день, новое напоминание
	env.clock = env.clock.AddDate(0, 0, 1)
	if _, err := env.reviews.GetMyReflectionStatus(ctx, team.employee); err != nil {
		t.Fatalf("GetMyReflectionStatus: %v", err)
	}
	if got := env.countNotifications(t, team.employee.UserID, NotificationReflectionOverdue); got != 2 {
		t.Errorf("expected 2 reminders over two days, got %d", got)
	}
}

func TestMyReflectionStatus_NotOverdueWhenCommitted(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	previous, err := env.reviews.CreateSelfReflection(ctx, team.employee, &dto.CreateSelfReflectionRequest{
		ReviewDate: "2024-06-07",
		Ratings:    ratings(6, 6, 6, 6, 6),
	})
	if err != nil {
		t.Fatalf("CreateSelfReflection: %v", err)
	}
	if _, err := env.reviews.Commit(ctx, team.employee, previous.ID, SideSelf); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	status, err := env.reviews.GetMyReflectionStatus(ctx, team.employee)
	if err != nil {
		t.Fatalf("GetMyReflectionStatus: %v", err)
	}
	if status.IsOverdue {
		t.Error("expected no overdue flag once last week is committed")
	}
	if got := env.countNotifications(t, team.employee.UserID, NotificationReflectionOverdue); got != 0 {
		t.Errorf("expected no reminder, got %d", got)
	}
}

func TestTeamStatusAndTrend(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	self := createSelf(t, env, team.employee, ratings(8, 7, 9, 6, 5))
	managerReview := createManager(t, env, team.manager, team.employee.UserID, ratings(7, 8, 8, 7, 6))
	if _, err := env.reviews.Commit(ctx, team.employee, self.ID, SideSelf); err != nil {
		t.Fatalf("Commit self: %v", err)
	}
	if _, err := env.reviews.Commit(ctx, team.manager, managerReview.ID, SideManager); err != nil {
		t.Fatalf("Commit manager: %v", err)
	}

	teamStatus, err := env.reviews.GetTeamStatus(ctx, team.manager)
	if err != nil {
		t.Fatalf("GetTeamStatus: %v", err)
	}
	if len(teamStatus.Members) != 1 {
		t.Fatalf("expected 1 direct report, got %d", len(teamStatus.Members))
	}
	member := teamStatus.Members[0]
	if member.LastRevealedWeek == nil || *member.LastRevealedWeek != exampleWeek {
		t.Errorf("expected last revealed week %s, got %v", exampleWeek, member.LastRevealedWeek)
	}
	if member.Freshness == nil || member.Freshness.Status != kpi.StatusGreen {
		t.Errorf("expected green freshness, got %+v", member.Freshness)
	}
	if !member.CurrentWeekSelf || !member.CurrentWeekManager {
		t.Error("expected both current-week flags")
	}
	assertMetric(t, "team manager velocity", member.ManagerMetrics.Velocity, 7.67)

	if _, err := env.reviews.GetTeamStatus(ctx, team.employee); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected employees to be refused team status, got %v", err)
	}

	trend, err := env.reviews.GetQuarterlyTrend(ctx, team.manager, &dto.TrendQuery{EmployeeID: team.employee.UserID, Year: 2024, Quarter: 2})
	if err != nil {
		t.Fatalf("GetQuarterlyTrend: %v", err)
	}
	if trend.RevealedWeeks != 1 {
		t.Errorf("expected 1 revealed week, got %d", trend.RevealedWeeks)
	}
	assertMetric(t, "trend manager friction", trend.Manager.Friction, 7.34)
	assertMetric(t, "trend self cohesion", trend.Self.Cohesion, 6.67)

	empty, err := env.reviews.GetQuarterlyTrend(ctx, team.manager, &dto.TrendQuery{EmployeeID: team.employee.UserID, Year: 2024, Quarter: 1})
	if err != nil {
		t.Fatalf("GetQuarterlyTrend: %v", err)
	}
	if empty.RevealedWeeks != 0 || empty.Manager.Velocity != nil {
		t.Errorf("expected empty quarter, got %+v", empty)
	}

	_, err = env.reviews.GetQuarterlyTrend(ctx, team.manager, &dto.TrendQuery{EmployeeID: team.employee.UserID, Year: 2024, Quarter: 5})
	if !errors.Is(err, domain.ErrInvalidQuarter) {
		t.Errorf("expected ErrInvalidQuarter, got %v", err)
	}
}

func TestListReviews_HidesManagerDraftFromEmployee(t *testing.T) {
	env := newTestEnv(t)
	team := seedReviewTeam(t, env)
	ctx := context.Background()

	createSelf(t, env, team.employee, ratings(5, 5, 5, 5, 5))
	createManager(t, env, team.manager, team.employee.UserID, ratings(6, 6, 6, 6, 6))

	mine, err := env.reviews.ListReviews(ctx, team.employee, &dto.ListReviewsQuery{})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(mine) != 1 || !mine[0].IsSelfAssessment {
		t.Fatalf("expected only the self-reflection, got %d reviews", len(mine))
	}
	if mine[0].Goals != "Ship the billing export" {
		t.Errorf("employee should read own text, got %q", mine[0].Goals)
	}

	managed, err := env.reviews.ListReviews(ctx, team.manager, &dto.ListReviewsQuery{EmployeeID: int64p(team.employee.UserID)})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(managed) != 2 {
		t.Fatalf("expected both reviews for the manager, got %d", len(managed))
	}

	if _, err := env.reviews.ListReviews(ctx, team.outsider, &dto.ListReviewsQuery{EmployeeID: int64p(team.employee.UserID)}); !errors.Is(err, domain.ErrNotManager) {
		t.Errorf("expected ErrNotManager, got %v", err)
	}

	all, err := env.reviews.ListReviews(ctx, team.admin, &dto.ListReviewsQuery{From: strp(exampleWeek), To: strp(exampleWeek)})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(all) != 2 || all[0].TasksCompleted == nil {
		t.Errorf("expected admin to see both reviews with numbers, got %d", len(all))
	}
}
