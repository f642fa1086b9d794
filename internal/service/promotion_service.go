package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/headoffice-api/internal/access"
	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	requiredVerifiedReferences = 2
	probationMonths            = 6
	finalReviewLeadDays        = 14
	milestoneStatusScheduled   = "scheduled"
)

// PromotionService проверяет ворота продвижения и переводит кандидата
// candidate -> pre_colleague -> active
type PromotionService interface {
	GetPromotionStatus(ctx context.Context, actor domain.Actor, candidateID int64) (*dto.PromotionStatusResponse, error)
	Promote(ctx context.Context, actor domain.Actor, candidateID int64) (*dto.PromoteResponse, error)
	ConfirmArrival(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.ConfirmArrivalRequest) (*dto.ArrivalResponse, error)
}

type promotionService struct {
	tx          repository.Transactor
	candidates  repository.CandidateRepository
	records     repository.OnboardingRepository
	policies    repository.PolicyRepository
	probations  repository.ProbationRepository
	users       repository.UserRepository
	outbox      repository.OutboxRepository
	provisioner Provisioner
	checker     *access.Checker
	audit       AuditLogger
	now         Clock
}

// NewPromotionService создаёт новый экземпляр сервиса
func NewPromotionService(
	tx repository.Transactor,
	candidates repository.CandidateRepository,
	records repository.OnboardingRepository,
	policies repository.PolicyRepository,
	probations repository.ProbationRepository,
	users repository.UserRepository,
	outbox repository.OutboxRepository,
	provisioner Provisioner,
	checker *access.Checker,
	audit AuditLogger,
) PromotionService {
	return &promotionService{
		tx:          tx,
		candidates:  candidates,
		records:     records,
		policies:    policies,
		probations:  probations,
		users:       users,
		outbox:      outbox,
		provisioner: provisioner,
		checker:     checker,
		audit:       audit,
		now:         systemClock,
	}
}

// GetPromotionStatus только читает: повторные вызовы не меняют состояние кандидата
func (s *promotionService) GetPromotionStatus(ctx context.Context, actor domain.Actor, candidateID int64) (*dto.PromotionStatusResponse, error) {
	if err := s.checker.Check(ctx, actor, access.OnboardingPromote, access.Resource{}); err != nil {
		return nil, err
	}
	candidate, err := s.candidates.GetByID(ctx, actor.TenantID, candidateID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, candidate)
}

// evaluate вычисляет ворота для текущего этапа кандидата
func (s *promotionService) evaluate(ctx context.Context, candidate *domain.Candidate) (*dto.PromotionStatusResponse, error) {
	status := &dto.PromotionStatusResponse{
		CandidateID:  candidate.ID,
		CurrentStage: candidate.Stage,
	}

	var (
		missing []string
		err     error
	)
	switch candidate.Stage {
	case domain.EmploymentCandidate:
		missing, err = s.gateA(ctx, candidate)
	case domain.EmploymentPreColleague:
		missing, err = s.gateB(ctx, candidate)
	default:
		missing = []string{domain.ErrAlreadyActive.Message}
	}
	if err != nil {
		return nil, err
	}

	if next, ok := candidate.Stage.Next(); ok {
		status.NextStage = next
	}
	if missing == nil {
		missing = []string{}
	}
	status.Missing = missing
	status.CanPromote = len(missing) == 0
	return status, nil
}

// gateA - условия перехода candidate -> pre_colleague. Отсутствие обязательных
// проверок биографии считается невыполненным условием.
func (s *promotionService) gateA(ctx context.Context, candidate *domain.Candidate) ([]string, error) {
	var missing []string

	refs, err := s.records.ListReferences(ctx, candidate.TenantID, candidate.ID)
	if err != nil {
		return nil, err
	}
	verified := 0
	for _, ref := range refs {
		if ref.Status == domain.ReferenceVerified {
			verified++
		}
	}
	if verified < requiredVerifiedReferences {
		missing = append(missing, fmt.Sprintf("Need %d more verified reference(s)", requiredVerifiedReferences-verified))
	}

	checks, err := s.records.ListBackgroundChecks(ctx, candidate.TenantID, candidate.ID)
	if err != nil {
		return nil, err
	}
	required := 0
	for _, check := range checks {
		if !check.Required {
			continue
		}
		required++
		if check.Status != domain.CheckCleared {
			missing = append(missing, fmt.Sprintf("Background check '%s' not cleared (status: %s)", check.CheckType, check.Status))
		}
	}
	if required == 0 {
		missing = append(missing, "No background checks configured")
	}

	var fields []string
	if candidate.ProposedRoleID == nil {
		fields = append(fields, "role")
	}
	if !candidate.ProposedSalary.Valid {
		fields = append(fields, "salary")
	}
	if !candidate.ProposedHours.Valid {
		fields = append(fields, "hours")
	}
	if candidate.ProposedStartDate == nil {
		fields = append(fields, "start date")
	}
	if len(fields) > 0 {
		missing = append(missing, "Contract details incomplete: "+strings.Join(fields, ", "))
	}
	if !candidate.ContractSigned {
		missing = append(missing, "Contract not signed")
	}

	return missing, nil
}

// gateB - условия перехода pre_colleague -> active. При отсутствии обязательных
// задач условие по задачам выполнено; проверки биографии перепроверяются на срок действия.
func (s *promotionService) gateB(ctx context.Context, candidate *domain.Candidate) ([]string, error) {
	var missing []string

	tasks, err := s.records.ListTasks(ctx, candidate.TenantID, candidate.ID)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		if task.RequiredBeforeStart && task.Status != domain.TaskCompleted {
			missing = append(missing, fmt.Sprintf("Onboarding task '%s' not completed", task.Title))
		}
	}

	policies, err := s.policies.ListRequiringAcknowledgment(ctx, candidate.TenantID)
	if err != nil {
		return nil, err
	}
	if len(policies) > 0 {
		acked, err := s.policies.AcknowledgedPolicyIDs(ctx, candidate.TenantID, candidate.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range policies {
			if !acked[p.ID] {
				missing = append(missing, fmt.Sprintf("Policy '%s' not acknowledged", p.Title))
			}
		}
	}

	if !candidate.ArrivalConfirmed {
		missing = append(missing, "Arrival not confirmed")
	}

	checks, err := s.records.ListBackgroundChecks(ctx, candidate.TenantID, candidate.ID)
	if err != nil {
		return nil, err
	}
	today := startOfDay(s.now())
	for _, check := range checks {
		if !check.Required {
			continue
		}
		if check.Status != domain.CheckCleared {
			missing = append(missing, fmt.Sprintf("Background check '%s' not cleared (status: %s)", check.CheckType, check.Status))
			continue
		}
		if check.ExpiryDate != nil && time.Time(*check.ExpiryDate).Before(today) {
			missing = append(missing, fmt.Sprintf("Background check '%s' expired on %s", check.CheckType, formatDatePtr(check.ExpiryDate)))
		}
	}

	return missing, nil
}

// Promote заново вычисляет ворота внутри транзакции и только затем меняет этап
func (s *promotionService) Promote(ctx context.Context, actor domain.Actor, candidateID int64) (*dto.PromoteResponse, error) {
	if err := s.checker.Check(ctx, actor, access.OnboardingPromote, access.Resource{}); err != nil {
		return nil, err
	}

	var resp *dto.PromoteResponse
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		candidate, err := s.candidates.GetForUpdate(ctx, actor.TenantID, candidateID)
		if err != nil {
			return err
		}
		if candidate.Stage == domain.EmploymentActive {
			return domain.ErrAlreadyActive
		}

		status, err := s.evaluate(ctx, candidate)
		if err != nil {
			return err
		}
		if !status.CanPromote {
			return domain.NewStateError("Promotion requirements not met", status.Missing)
		}

		from := candidate.Stage
		resp = &dto.PromoteResponse{CandidateID: candidate.ID, FromStage: from, ToStage: status.NextStage}

		switch from {
		case domain.EmploymentCandidate:
			provisioning, err := s.provisioner.Provision(ctx, candidate)
			if err != nil {
				return err
			}
			resp.Provisioning = provisioning

			candidate.Stage = domain.EmploymentPreColleague
			if err := s.candidates.Update(ctx, candidate); err != nil {
				return err
			}

		case domain.EmploymentPreColleague:
			probation, err := s.activate(ctx, candidate)
			if err != nil {
				return err
			}
			resp.Probation = probation
		}

		return emit(ctx, s.outbox, candidate.TenantID, domain.EventCandidatePromoted, domain.CandidatePromotedPayload{
			CandidateID: candidate.ID,
			UserID:      candidate.UserID,
			ManagerID:   candidate.ManagerID,
			FullName:    candidate.FullName(),
			FromStage:   from,
			ToStage:     candidate.Stage,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogUpdate(ctx, actor, "candidate", candidateID,
		fmt.Sprintf("candidate promoted %s -> %s", resp.FromStage, resp.ToStage), nil)
	return resp, nil
}

// activate переводит кандидата в active, активирует учётную запись и открывает
// испытательный срок, если у сотрудника ещё нет действующего
func (s *promotionService) activate(ctx context.Context, candidate *domain.Candidate) (*dto.ProbationResponse, error) {
	if candidate.UserID == nil {
		return nil, domain.ErrCandidateNotProvisioned
	}

	today := startOfDay(s.now())
	candidate.Stage = domain.EmploymentActive
	candidate.ActualStartDate = datePtr(today)
	if err := s.candidates.Update(ctx, candidate); err != nil {
		return nil, err
	}
	if err := s.users.UpdateEmploymentStatus(ctx, candidate.TenantID, *candidate.UserID, domain.EmploymentStatusActive); err != nil {
		return nil, err
	}

	active, err := s.probations.HasActive(ctx, candidate.TenantID, *candidate.UserID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, nil
	}

	period := newProbation(candidate.TenantID, *candidate.UserID, today)
	if err := s.probations.Create(ctx, period); err != nil {
		return nil, err
	}

	err = emit(ctx, s.outbox, candidate.TenantID, domain.EventProbationCreated, domain.ProbationCreatedPayload{
		ProbationID: period.ID,
		EmployeeID:  period.EmployeeID,
		ManagerID:   candidate.ManagerID,
		EndDate:     formatDate(period.EndDate),
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.ProbationResponse{
		ID:        period.ID,
		StartDate: formatDate(period.StartDate),
		EndDate:   formatDate(period.EndDate),
	}
	for _, r := range period.Reviews {
		resp.Milestones = append(resp.Milestones, fmt.Sprintf("%s: %s", r.Milestone, formatDate(r.ScheduledDate)))
	}
	return resp, nil
}

// newProbation - шестимесячный срок с контрольными точками через 1, 3 и 6 месяцев
// и финальной оценкой за две недели до окончания
func newProbation(tenantID, employeeID int64, start time.Time) *domain.ProbationPeriod {
	end := start.AddDate(0, probationMonths, 0)
	milestones := []struct {
		name string
		date time.Time
	}{
		{"month_1", start.AddDate(0, 1, 0)},
		{"month_3", start.AddDate(0, 3, 0)},
		{"final", end.AddDate(0, 0, -finalReviewLeadDays)},
		{"month_6", end},
	}

	period := &domain.ProbationPeriod{
		TenantID:   tenantID,
		EmployeeID: employeeID,
		StartDate:  *datePtr(start),
		EndDate:    *datePtr(end),
		Status:     domain.ProbationActive,
	}
	for _, m := range milestones {
		period.Reviews = append(period.Reviews, domain.ProbationReview{
			TenantID:      tenantID,
			EmployeeID:    employeeID,
			Milestone:     m.name,
			ScheduledDate: *datePtr(m.date),
			Status:        milestoneStatusScheduled,
		})
	}
	return period
}

// ConfirmArrival отмечает фактический выход. Подтверждающий повторно вводит свой пароль.
// Если после этого ворота B выполнены, кандидат активируется в той же транзакции.
func (s *promotionService) ConfirmArrival(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.ConfirmArrivalRequest) (*dto.ArrivalResponse, error) {
	if err := s.checker.Check(ctx, actor, access.OnboardingConfirm, access.Resource{}); err != nil {
		return nil, err
	}

	confirmer, err := s.users.GetByID(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(confirmer.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrPasswordInvalid
	}

	var resp *dto.ArrivalResponse
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		candidate, err := s.candidates.GetForUpdate(ctx, actor.TenantID, candidateID)
		if err != nil {
			return err
		}
		if candidate.Stage != domain.EmploymentPreColleague {
			return domain.ErrNotPreColleague
		}
		if candidate.ArrivalConfirmed {
			return domain.ErrArrivalAlreadyConfirmed
		}

		now := s.now()
		candidate.ArrivalConfirmed = true
		candidate.ArrivalConfirmedAt = &now
		candidate.ArrivalConfirmedBy = &actor.UserID
		if err := s.candidates.Update(ctx, candidate); err != nil {
			return err
		}

		status, err := s.evaluate(ctx, candidate)
		if err != nil {
			return err
		}
		resp = &dto.ArrivalResponse{CandidateID: candidate.ID, Stage: candidate.Stage}
		if !status.CanPromote {
			resp.Missing = status.Missing
			return nil
		}

		probation, err := s.activate(ctx, candidate)
		if err != nil {
			return err
		}
		resp.Stage = candidate.Stage
		resp.Activated = true
		resp.Probation = probation

		return emit(ctx, s.outbox, candidate.TenantID, domain.EventCandidatePromoted, domain.CandidatePromotedPayload{
			CandidateID: candidate.ID,
			UserID:      candidate.UserID,
			ManagerID:   candidate.ManagerID,
			FullName:    candidate.FullName(),
			FromStage:   domain.EmploymentPreColleague,
			ToStage:     domain.EmploymentActive,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogUpdate(ctx, actor, "candidate", candidateID, "arrival confirmed", map[string]any{"activated": resp.Activated})
	return resp, nil
}
