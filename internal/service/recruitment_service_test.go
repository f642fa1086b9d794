package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
	"github.com/shopspring/decimal"
)

func createCandidate(t *testing.T, env *testEnv, actor domain.Actor, managerID *int64) *domain.Candidate {
	t.Helper()
	candidate, err := env.recruitment.CreateCandidate(context.Background(), actor, &dto.CreateCandidateRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "  Grace.Hopper@Example.com ",
		ManagerID: managerID,
	})
	if err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}
	return candidate
}

func moveTo(t *testing.T, env *testEnv, actor domain.Actor, candidateID int64, stage domain.RecruitmentStage, reason string) *dto.TransitionResponse {
	t.Helper()
	resp, err := env.recruitment.TransitionStage(context.Background(), actor, candidateID, &dto.TransitionStageRequest{
		Stage:  string(stage),
		Reason: reason,
	})
	if err != nil {
		t.Fatalf("TransitionStage to %s: %v", stage, err)
	}
	return resp
}

func historyLen(t *testing.T, env *testEnv, actor domain.Actor, candidateID int64) int {
	t.Helper()
	history, err := env.recruitment.GetStageHistory(context.Background(), actor, candidateID)
	if err != nil {
		t.Fatalf("GetStageHistory: %v", err)
	}
	return len(history)
}

// advanceToFinalShortlist проводит кандидата по обычному пути до final_shortlist
func advanceToFinalShortlist(t *testing.T, env *testEnv, actor domain.Actor, candidateID int64) {
	t.Helper()
	ctx := context.Background()

	if _, err := env.recruitment.AddNote(ctx, actor, candidateID, &dto.AddNoteRequest{NoteType: "screening", Content: "Strong CV"}); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	moveTo(t, env, actor, candidateID, domain.StageShortlisted, "")

	scheduled, err := env.recruitment.ScheduleInterview(ctx, actor, candidateID, &dto.ScheduleInterviewRequest{
		ScheduledAt:   time.Date(2024, 6, 18, 10, 0, 0, 0, time.UTC),
		InterviewType: "technical",
	})
	if err != nil {
		t.Fatalf("ScheduleInterview: %v", err)
	}
	if scheduled.RecruitmentStage != domain.StageInterviewRequested {
		t.Fatalf("expected interview_requested, got %s", scheduled.RecruitmentStage)
	}
	moveTo(t, env, actor, candidateID, domain.StageInterviewScheduled, "")

	if _, err := env.recruitment.CompleteInterview(ctx, actor, candidateID, scheduled.Interview.ID, &dto.CompleteInterviewRequest{Score: 8, Feedback: "Solid"}); err != nil {
		t.Fatalf("CompleteInterview: %v", err)
	}
	moveTo(t, env, actor, candidateID, domain.StageInterviewComplete, "")
	moveTo(t, env, actor, candidateID, domain.StageFinalShortlist, "")
}

func TestCreateCandidate(t *testing.T) {
	env := newTestEnv(t)
	hr := env.seedPerson(t, "Hana HR", domain.RoleHR, nil)
	employee := env.seedPerson(t, "Eve Employee", domain.RoleEmployee, nil)

	candidate := createCandidate(t, env, hr, nil)
	if candidate.Stage != domain.EmploymentCandidate || candidate.RecruitmentStage != domain.StageApplication {
		t.Errorf("unexpected initial stages %s/%s", candidate.Stage, candidate.RecruitmentStage)
	}
	if candidate.Email != "grace.hopper@example.com" {
		t.Errorf("expected normalized email, got %q", candidate.Email)
	}
	if got := historyLen(t, env, hr, candidate.ID); got != 1 {
		t.Errorf("expected initial history row, got %d", got)
	}

	_, err := env.recruitment.CreateCandidate(context.Background(), employee, &dto.CreateCandidateRequest{FirstName: "A", LastName: "B", Email: "a@b.c"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestTransitionStage_Guards(t *testing.T) {
	env := newTestEnv(t)
	hr := env.seedPerson(t, "Hana HR", domain.RoleHR, nil)
	ctx := context.Background()
	candidate := createCandidate(t, env, hr, nil)

	_, err := env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: "shortlisted"})
	if !errors.Is(err, domain.ErrScreeningNoteRequired) {
		t.Fatalf("expected ErrScreeningNoteRequired, got %v", err)
	}

	_, err = env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: "offer_made"})
	assertKind(t, err, domain.KindState)
	want := []string{"shortlisted", "rejected", "withdrawn"}
	if got := domain.DetailsOf(err); !reflect.DeepEqual(got, want) {
		t.Errorf("expected allowed stages %v, got %v", want, got)
	}

	_, err = env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: "application"})
	if !errors.Is(err, domain.ErrSameStage) {
		t.Errorf("expected ErrSameStage, got %v", err)
	}

	_, err = env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: "hired"})
	if !errors.Is(err, domain.ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage, got %v", err)
	}

	_, err = env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: "rejected", Reason: "   "})
	if !errors.Is(err, domain.ErrReasonRequired) {
		t.Errorf("expected ErrReasonRequired, got %v", err)
	}

	if got := historyLen(t, env, hr, candidate.ID); got != 1 {
		t.Errorf("failed transitions must not write history, got %d rows", got)
	}
	if got := env.countEvents(t, domain.EventCandidateStageChanged); got != 0 {
		t.Errorf("failed transitions must not emit events, got %d", got)
	}
}

func TestTransitionStage_InterviewCompleteNeedsScore(t *testing.T) {
	env := newTestEnv(t)
	hr := env.seedPerson(t, "Hana HR", domain.RoleHR, nil)
	ctx := context.Background()
	candidate := createCandidate(t, env, hr, nil)

	if _, err := env.recruitment.AddNote(ctx, hr, candidate.ID, &dto.AddNoteRequest{NoteType: "screening", Content: "ok"}); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	moveTo(t, env, hr, candidate.ID, domain.StageShortlisted, "")
	moveTo(t, env, hr, candidate.ID, domain.StageInterviewRequested, "")
	moveTo(t, env, hr, candidate.ID, domain.StageInterviewScheduled, "")

	_, err := env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: "interview_complete"})
	if !errors.Is(err, domain.ErrCompletedInterviewMissing) {
		t.Fatalf("expected ErrCompletedInterviewMissing, got %v", err)
	}

	scheduled, err := env.recruitment.ScheduleInterview(ctx, hr, candidate.ID, &dto.ScheduleInterviewRequest{ScheduledAt: env.clock})
	if err != nil {
		t.Fatalf("ScheduleInterview: %v", err)
	}
	if scheduled.RecruitmentStage != domain.StageInterviewScheduled {
		t.Errorf("expected stage to stay interview_scheduled, got %s", scheduled.RecruitmentStage)
	}

	if _, err := env.recruitment.CompleteInterview(ctx, hr, candidate.ID, scheduled.Interview.ID, &dto.CompleteInterviewRequest{Score: 11}); !errors.Is(err, domain.ErrInterviewScoreRange) {
		t.Errorf("expected ErrInterviewScoreRange, got %v", err)
	}
	if _, err := env.recruitment.CompleteInterview(ctx, hr, candidate.ID, scheduled.Interview.ID, &dto.CompleteInterviewRequest{Score: 7}); err != nil {
		t.Fatalf("CompleteInterview: %v", err)
	}
	if _, err := env.recruitment.CompleteInterview(ctx, hr, candidate.ID, scheduled.Interview.ID, &dto.CompleteInterviewRequest{Score: 7}); !errors.Is(err, domain.ErrInterviewAlreadyComplete) {
		t.Errorf("expected ErrInterviewAlreadyComplete, got %v", err)
	}

	moveTo(t, env, hr, candidate.ID, domain.StageInterviewComplete, "")
}

func TestOfferFlow_ProvisionsEmployee(t *testing.T) {
	env := newTestEnv(t)
	hr := env.seedPerson(t, "Hana HR", domain.RoleHR, nil)
	manager := env.seedPerson(t, "Maria Manager", domain.RoleManager, nil)
	ctx := context.Background()

	candidate := createCandidate(t, env, hr, int64p(manager.UserID))
	advanceToFinalShortlist(t, env, hr, candidate.ID)
	before := historyLen(t, env, hr, candidate.ID)

	_, err := env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: "offer_made"})
	if !errors.Is(err, domain.ErrOfferDetailsRequired) {
		t.Fatalf("expected ErrOfferDetailsRequired, got %v", err)
	}
	if err.Error() != "Offer details (salary and start date) must be set first" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if got := historyLen(t, env, hr, candidate.ID); got != before {
		t.Errorf("expected no history row for a refused transition, got %d -> %d", before, got)
	}

	salary := decimal.NewFromInt(55000)
	offered, err := env.recruitment.MakeOffer(ctx, hr, candidate.ID, &dto.MakeOfferRequest{
		Salary:    &salary,
		StartDate: "2024-07-01",
		RoleID:    int64p(42),
	})
	if err != nil {
		t.Fatalf("MakeOffer: %v", err)
	}
	if offered.ToStage != string(domain.StageOfferMade) {
		t.Errorf("expected offer_made, got %s", offered.ToStage)
	}

	raised := decimal.NewFromInt(58000)
	if _, err := env.recruitment.MakeOffer(ctx, hr, candidate.ID, &dto.MakeOfferRequest{Salary: &raised, StartDate: "2024-07-01"}); err != nil {
		t.Fatalf("MakeOffer update: %v", err)
	}

	accepted, err := env.recruitment.AcceptOffer(ctx, hr, candidate.ID)
	if err != nil {
		t.Fatalf("AcceptOffer: %v", err)
	}
	provisioning := accepted.Provisioning
	if provisioning == nil {
		t.Fatal("expected provisioning on offer acceptance")
	}
	if provisioning.EmployeeNumber != "EMP001" {
		t.Errorf("expected EMP001, got %s", provisioning.EmployeeNumber)
	}
	if len(provisioning.TemporaryPassword) != tempPasswordLength {
		t.Errorf("expected %d-char temporary password, got %d", tempPasswordLength, len(provisioning.TemporaryPassword))
	}
	if provisioning.TasksCreated == 0 || provisioning.DayOneItems == 0 {
		t.Errorf("expected onboarding records, got %+v", provisioning)
	}

	user, err := env.users.GetByID(ctx, testTenant, provisioning.UserID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.EmploymentStatus != domain.EmploymentStatusPreStart || !user.MustChangePassword {
		t.Errorf("expected pre_start account with forced password change, got %+v", user)
	}
	if user.ManagerID == nil || *user.ManagerID != manager.UserID {
		t.Errorf("expected manager to carry over, got %v", user.ManagerID)
	}
	if strings.Contains(user.PasswordHash, provisioning.TemporaryPassword) {
		t.Error("temporary password must not be stored in clear")
	}

	stored, err := env.candidates.GetByID(ctx, testTenant, candidate.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.UserID == nil || *stored.UserID != user.ID {
		t.Error("expected candidate to be linked to the new account")
	}
	if !stored.ProposedSalary.Valid || !stored.ProposedSalary.Decimal.Equal(raised) {
		t.Errorf("expected offer salary copied to contract, got %v", stored.ProposedSalary)
	}
	if stored.ProposedRoleID == nil || *stored.ProposedRoleID != 42 {
		t.Errorf("expected offer role copied to contract, got %v", stored.ProposedRoleID)
	}
	if stored.OfferAcceptedAt == nil {
		t.Error("expected offer_accepted_at to be set")
	}
	if stored.Stage != domain.EmploymentPreColleague {
		t.Errorf("expected stage pre_colleague after offer acceptance, got %s", stored.Stage)
	}
	if accepted.Candidate.Stage != domain.EmploymentPreColleague {
		t.Errorf("expected response to carry pre_colleague, got %s", accepted.Candidate.Stage)
	}
	if got := env.countEvents(t, domain.EventCandidatePromoted); got != 1 {
		t.Errorf("expected 1 promotion event, got %d", got)
	}

	// Дальше кандидат проходит уже ворота B
	status, err := env.promotion.GetPromotionStatus(ctx, hr, candidate.ID)
	if err != nil {
		t.Fatalf("GetPromotionStatus: %v", err)
	}
	if status.CurrentStage != domain.EmploymentPreColleague || status.NextStage != domain.EmploymentActive {
		t.Errorf("expected gate B evaluation, got %s -> %s", status.CurrentStage, status.NextStage)
	}

	tasks, err := env.records.ListTasks(ctx, testTenant, candidate.ID)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != provisioning.TasksCreated {
		t.Errorf("expected %d tasks stored, got %d", provisioning.TasksCreated, len(tasks))
	}

	// Повторное создание учётной записи возвращает существующую
	again, err := env.recruitment.provisioner.Provision(ctx, stored)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if !again.AlreadyProvisioned || again.UserID != user.ID || again.TemporaryPassword != "" {
		t.Errorf("expected idempotent provisioning, got %+v", again)
	}
	if got := env.countEvents(t, domain.EventEmployeeProvisioned); got != 1 {
		t.Errorf("expected 1 provisioning event, got %d", got)
	}

	_, err = env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: "withdrawn", Reason: "changed mind"})
	if !errors.Is(err, domain.ErrTerminalStage) {
		t.Errorf("expected ErrTerminalStage, got %v", err)
	}
}

func TestMakeOffer_Validation(t *testing.T) {
	env := newTestEnv(t)
	hr := env.seedPerson(t, "Hana HR", domain.RoleHR, nil)
	ctx := context.Background()
	candidate := createCandidate(t, env, hr, nil)

	zero := decimal.Zero
	_, err := env.recruitment.MakeOffer(ctx, hr, candidate.ID, &dto.MakeOfferRequest{Salary: &zero, StartDate: "2024-07-01"})
	assertKind(t, err, domain.KindValidation)

	salary := decimal.NewFromInt(40000)
	_, err = env.recruitment.MakeOffer(ctx, hr, candidate.ID, &dto.MakeOfferRequest{Salary: &salary, StartDate: "2024-07-01"})
	if !errors.Is(err, domain.ErrOfferNotOpen) {
		t.Errorf("expected ErrOfferNotOpen, got %v", err)
	}
}

func TestTransitionStage_RejectAndAdminForce(t *testing.T) {
	env := newTestEnv(t)
	hr := env.seedPerson(t, "Hana HR", domain.RoleHR, nil)
	admin := env.seedPerson(t, "Ada Admin", domain.RoleAdmin, nil)
	ctx := context.Background()
	candidate := createCandidate(t, env, hr, nil)

	rejected := moveTo(t, env, hr, candidate.ID, domain.StageRejected, "Missing work permit")
	if rejected.Candidate.RejectionReason != "Missing work permit" {
		t.Errorf("expected rejection reason stored, got %q", rejected.Candidate.RejectionReason)
	}

	var notes []domain.CandidateNote
	env.db.Where("candidate_id = ? AND note_type = ?", candidate.ID, domain.NoteStageChange).Find(&notes)
	if len(notes) != 1 || !strings.Contains(notes[0].Content, "Missing work permit") {
		t.Errorf("expected stage change note with the reason, got %+v", notes)
	}

	_, err := env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: "interview_scheduled"})
	assertKind(t, err, domain.KindState)

	forced := moveTo(t, env, admin, candidate.ID, domain.StageInterviewScheduled, "Reopened after review")
	if !forced.Forced {
		t.Error("expected forced transition for an administrator")
	}

	// Охранные условия действуют и при принудительном переводе
	_, err = env.recruitment.TransitionStage(ctx, admin, candidate.ID, &dto.TransitionStageRequest{Stage: "offer_made"})
	if !errors.Is(err, domain.ErrOfferDetailsRequired) {
		t.Errorf("expected ErrOfferDetailsRequired for admin too, got %v", err)
	}

	history, err := env.recruitment.GetStageHistory(ctx, hr, candidate.ID)
	if err != nil {
		t.Fatalf("GetStageHistory: %v", err)
	}
	last := history[len(history)-1]
	if last.FromStage != domain.StageRejected || last.ToStage != domain.StageInterviewScheduled || !last.Forced {
		t.Errorf("unexpected last history row %+v", last)
	}
	if got := env.countEvents(t, domain.EventCandidateStageChanged); got != 2 {
		t.Errorf("expected 2 stage change events, got %d", got)
	}
}

func TestPipelineAndExport(t *testing.T) {
	env := newTestEnv(t)
	hr := env.seedPerson(t, "Hana HR", domain.RoleHR, nil)
	ctx := context.Background()

	first := createCandidate(t, env, hr, nil)
	createCandidate(t, env, hr, nil)
	moveTo(t, env, hr, first.ID, domain.StageWithdrawn, "Accepted another offer")

	pipeline, err := env.recruitment.GetPipeline(ctx, hr)
	if err != nil {
		t.Fatalf("GetPipeline: %v", err)
	}
	if len(pipeline.Stages) != len(domain.RecruitmentStages()) {
		t.Errorf("expected every stage listed, got %d", len(pipeline.Stages))
	}
	counts := map[domain.RecruitmentStage]int64{}
	for _, s := range pipeline.Stages {
		counts[s.Stage] = s.Count
	}
	if counts[domain.StageApplication] != 1 || counts[domain.StageWithdrawn] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if len(pipeline.Candidates) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(pipeline.Candidates))
	}

	data, err := env.recruitment.ExportPipeline(ctx, hr)
	if err != nil {
		t.Fatalf("ExportPipeline: %v", err)
	}
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Error("expected an xlsx (zip) payload")
	}
}

// setRecruitmentStage ставит стадию напрямую, минуя машину переходов
func (e *testEnv) setRecruitmentStage(t *testing.T, candidateID int64, stage domain.RecruitmentStage) {
	t.Helper()
	err := e.db.Model(&domain.Candidate{}).Where("id = ?", candidateID).Update("recruitment_stage", stage).Error
	if err != nil {
		t.Fatalf("failed to set stage: %v", err)
	}
}

func (e *testEnv) countHistory(t *testing.T, candidateID int64) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&domain.CandidateStageHistory{}).Where("candidate_id = ?", candidateID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count history: %v", err)
	}
	return count
}

func TestTransitionStage_EveryIllegalPairRefusedForNonAdmin(t *testing.T) {
	env := newTestEnv(t)
	hr := env.seedPerson(t, "Hana HR", domain.RoleHR, nil)
	ctx := context.Background()
	candidate := createCandidate(t, env, hr, nil)
	before := env.countHistory(t, candidate.ID)

	stages := domain.RecruitmentStages()
	for _, from := range stages {
		for _, to := range stages {
			if from == to || from.CanTransitionTo(to) {
				continue
			}
			env.setRecruitmentStage(t, candidate.ID, from)

			_, err := env.recruitment.TransitionStage(ctx, hr, candidate.ID, &dto.TransitionStageRequest{Stage: string(to), Reason: "moving on"})
			if err == nil {
				t.Errorf("%s -> %s: expected refusal", from, to)
				continue
			}
			if got := domain.KindOf(err); got != domain.KindState {
				t.Errorf("%s -> %s: expected state error, got %s (%v)", from, to, got, err)
			}
		}
	}

	if got := env.countHistory(t, candidate.ID); got != before {
		t.Errorf("expected no history rows after refused transitions, got %d -> %d", before, got)
	}
}

func TestTransitionStage_AdminForcesIllegalPairs(t *testing.T) {
	env := newTestEnv(t)
	hr := env.seedPerson(t, "Hana HR", domain.RoleHR, nil)
	admin := env.seedPerson(t, "Ada Admin", domain.RoleAdmin, nil)
	ctx := context.Background()
	candidate := createCandidate(t, env, hr, nil)

	// Стадии с охранными условиями проверяются отдельными тестами
	guarded := map[domain.RecruitmentStage]bool{
		domain.StageInterviewComplete: true,
		domain.StageOfferMade:         true,
		domain.StageOfferAccepted:     true,
	}

	var forcedMoves int64
	stages := domain.RecruitmentStages()
	for _, from := range stages {
		for _, to := range stages {
			if from == to || from.CanTransitionTo(to) || guarded[to] {
				continue
			}
			env.setRecruitmentStage(t, candidate.ID, from)

			resp, err := env.recruitment.TransitionStage(ctx, admin, candidate.ID, &dto.TransitionStageRequest{Stage: string(to), Reason: "manual correction"})
			if err != nil {
				t.Errorf("%s -> %s: expected forced move, got %v", from, to, err)
				continue
			}
			if !resp.Forced {
				t.Errorf("%s -> %s: expected forced flag", from, to)
			}
			forcedMoves++
		}
	}

	var forcedRows int64
	env.db.Model(&domain.CandidateStageHistory{}).Where("candidate_id = ? AND forced = ?", candidate.ID, true).Count(&forcedRows)
	if forcedRows != forcedMoves {
		t.Errorf("expected %d forced history rows, got %d", forcedMoves, forcedRows)
	}
}
