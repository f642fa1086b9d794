package service

import (
	"context"
	"strings"

	"github.com/headoffice-api/internal/access"
	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/repository"
)

// CandidateRecordsService ведёт записи, которые проверяют ворота продвижения:
// рекомендации, проверки биографии, договор, задачи адаптации и подтверждения политик
type CandidateRecordsService interface {
	GetCandidate(ctx context.Context, actor domain.Actor, candidateID int64) (*dto.CandidateDetailResponse, error)
	AddReference(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.AddReferenceRequest) (*domain.CandidateReference, error)
	UpdateReference(ctx context.Context, actor domain.Actor, candidateID, referenceID int64, req *dto.UpdateReferenceRequest) (*domain.CandidateReference, error)
	AddBackgroundCheck(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.AddBackgroundCheckRequest) (*domain.BackgroundCheck, error)
	UpdateBackgroundCheck(ctx context.Context, actor domain.Actor, candidateID, checkID int64, req *dto.UpdateBackgroundCheckRequest) (*domain.BackgroundCheck, error)
	UpdateContract(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.UpdateContractRequest) (*domain.Candidate, error)
	CompleteOnboardingTask(ctx context.Context, actor domain.Actor, candidateID, taskID int64) (*domain.OnboardingTask, error)
	AcknowledgePolicy(ctx context.Context, actor domain.Actor, candidateID, policyID int64) (*domain.PolicyAcknowledgment, error)
}

type candidateRecordsService struct {
	candidates repository.CandidateRepository
	records    repository.OnboardingRepository
	policies   repository.PolicyRepository
	checker    *access.Checker
	audit      AuditLogger
	now        Clock
}

// NewCandidateRecordsService создаёт новый экземпляр сервиса
func NewCandidateRecordsService(
	candidates repository.CandidateRepository,
	records repository.OnboardingRepository,
	policies repository.PolicyRepository,
	checker *access.Checker,
	audit AuditLogger,
) CandidateRecordsService {
	return &candidateRecordsService{
		candidates: candidates,
		records:    records,
		policies:   policies,
		checker:    checker,
		audit:      audit,
		now:        systemClock,
	}
}

func (s *candidateRecordsService) GetCandidate(ctx context.Context, actor domain.Actor, candidateID int64) (*dto.CandidateDetailResponse, error) {
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}
	candidate, err := s.candidates.GetByID(ctx, actor.TenantID, candidateID)
	if err != nil {
		return nil, err
	}

	resp := &dto.CandidateDetailResponse{Candidate: candidate}
	if resp.References, err = s.records.ListReferences(ctx, actor.TenantID, candidateID); err != nil {
		return nil, err
	}
	if resp.BackgroundChecks, err = s.records.ListBackgroundChecks(ctx, actor.TenantID, candidateID); err != nil {
		return nil, err
	}
	if resp.OnboardingTasks, err = s.records.ListTasks(ctx, actor.TenantID, candidateID); err != nil {
		return nil, err
	}
	if resp.DayOne, err = s.records.ListDayOneItems(ctx, actor.TenantID, candidateID); err != nil {
		return nil, err
	}
	return resp, nil
}

// openCandidate возвращает кандидата, записи которого ещё можно менять
func (s *candidateRecordsService) openCandidate(ctx context.Context, actor domain.Actor, candidateID int64) (*domain.Candidate, error) {
	candidate, err := s.candidates.GetByID(ctx, actor.TenantID, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.Stage == domain.EmploymentActive {
		return nil, domain.ErrCandidateClosed
	}
	return candidate, nil
}

func (s *candidateRecordsService) AddReference(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.AddReferenceRequest) (*domain.CandidateReference, error) {
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.openCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}

	ref := &domain.CandidateReference{
		TenantID:     actor.TenantID,
		CandidateID:  candidateID,
		RefereeName:  strings.TrimSpace(req.RefereeName),
		RefereeEmail: strings.TrimSpace(req.RefereeEmail),
		Relationship: strings.TrimSpace(req.Relationship),
		Status:       domain.ReferencePending,
	}
	if err := s.records.CreateReference(ctx, ref); err != nil {
		return nil, err
	}

	s.audit.LogCreate(ctx, actor, "candidate_reference", ref.ID, "reference added", req)
	return ref, nil
}

func (s *candidateRecordsService) UpdateReference(ctx context.Context, actor domain.Actor, candidateID, referenceID int64, req *dto.UpdateReferenceRequest) (*domain.CandidateReference, error) {
	status := domain.ReferenceStatus(req.Status)
	switch status {
	case domain.ReferencePending, domain.ReferenceVerified, domain.ReferenceFailed:
	default:
		return nil, domain.Validationf("status must be one of pending, verified, failed")
	}
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.openCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}

	ref, err := s.records.GetReference(ctx, actor.TenantID, candidateID, referenceID)
	if err != nil {
		return nil, err
	}
	ref.Status = status
	if status == domain.ReferenceVerified {
		now := s.now()
		ref.VerifiedAt = &now
		ref.VerifiedBy = &actor.UserID
	} else {
		ref.VerifiedAt = nil
		ref.VerifiedBy = nil
	}
	if err := s.records.UpdateReference(ctx, ref); err != nil {
		return nil, err
	}

	s.audit.LogUpdate(ctx, actor, "candidate_reference", ref.ID, "reference status set to "+req.Status, nil)
	return ref, nil
}

func (s *candidateRecordsService) AddBackgroundCheck(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.AddBackgroundCheckRequest) (*domain.BackgroundCheck, error) {
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.openCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}

	check := &domain.BackgroundCheck{
		TenantID:    actor.TenantID,
		CandidateID: candidateID,
		CheckType:   strings.TrimSpace(req.CheckType),
		Required:    true,
		Status:      domain.CheckPending,
		Notes:       strings.TrimSpace(req.Notes),
	}
	if req.Required != nil {
		check.Required = *req.Required
	}
	if req.ExpiryDate != nil {
		expiry, err := parseDate(*req.ExpiryDate)
		if err != nil {
			return nil, err
		}
		check.ExpiryDate = datePtr(expiry)
	}
	if err := s.records.CreateBackgroundCheck(ctx, check); err != nil {
		return nil, err
	}

	s.audit.LogCreate(ctx, actor, "background_check", check.ID, "background check added", req)
	return check, nil
}

func (s *candidateRecordsService) UpdateBackgroundCheck(ctx context.Context, actor domain.Actor, candidateID, checkID int64, req *dto.UpdateBackgroundCheckRequest) (*domain.BackgroundCheck, error) {
	status := domain.CheckStatus(req.Status)
	if !status.IsValid() {
		return nil, domain.Validationf("status must be one of pending, in_progress, cleared, failed")
	}
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.openCandidate(ctx, actor, candidateID); err != nil {
		return nil, err
	}

	check, err := s.records.GetBackgroundCheck(ctx, actor.TenantID, candidateID, checkID)
	if err != nil {
		return nil, err
	}
	check.Status = status
	if status == domain.CheckCleared {
		now := s.now()
		check.ClearedAt = &now
	} else {
		check.ClearedAt = nil
	}
	if req.ExpiryDate != nil {
		expiry, err := parseDate(*req.ExpiryDate)
		if err != nil {
			return nil, err
		}
		check.ExpiryDate = datePtr(expiry)
	}
	if req.Notes != nil {
		check.Notes = strings.TrimSpace(*req.Notes)
	}
	if err := s.records.UpdateBackgroundCheck(ctx, check); err != nil {
		return nil, err
	}

	s.audit.LogUpdate(ctx, actor, "background_check", check.ID, "background check status set to "+req.Status, nil)
	return check, nil
}

func (s *candidateRecordsService) UpdateContract(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.UpdateContractRequest) (*domain.Candidate, error) {
	if req.ProposedSalary != nil && !req.ProposedSalary.IsPositive() {
		return nil, domain.Validationf("proposed_salary must be a positive amount")
	}
	if req.ProposedHours != nil && !req.ProposedHours.IsPositive() {
		return nil, domain.Validationf("proposed_hours must be positive")
	}
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}
	candidate, err := s.openCandidate(ctx, actor, candidateID)
	if err != nil {
		return nil, err
	}

	if req.ProposedRoleID != nil {
		candidate.ProposedRoleID = req.ProposedRoleID
	}
	if req.ProposedSalary != nil {
		candidate.ProposedSalary.Decimal = *req.ProposedSalary
		candidate.ProposedSalary.Valid = true
	}
	if req.ProposedHours != nil {
		candidate.ProposedHours.Decimal = *req.ProposedHours
		candidate.ProposedHours.Valid = true
	}
	if req.ProposedStartDate != nil {
		start, err := parseDate(*req.ProposedStartDate)
		if err != nil {
			return nil, err
		}
		candidate.ProposedStartDate = datePtr(start)
	}
	if req.ContractSigned != nil {
		candidate.ContractSigned = *req.ContractSigned
	}
	if err := s.candidates.Update(ctx, candidate); err != nil {
		return nil, err
	}

	s.audit.LogUpdate(ctx, actor, "candidate", candidate.ID, "contract details updated", req)
	return candidate, nil
}

func (s *candidateRecordsService) CompleteOnboardingTask(ctx context.Context, actor domain.Actor, candidateID, taskID int64) (*domain.OnboardingTask, error) {
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}
	task, err := s.records.GetTask(ctx, actor.TenantID, candidateID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == domain.TaskCompleted {
		return task, nil
	}

	now := s.now()
	task.Status = domain.TaskCompleted
	task.CompletedAt = &now
	task.CompletedBy = &actor.UserID
	if err := s.records.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	s.audit.LogUpdate(ctx, actor, "onboarding_task", task.ID, "onboarding task completed", nil)
	return task, nil
}

// AcknowledgePolicy записывает подтверждение политики. Подтвердить может кадровик,
// руководитель или сам кандидат через свою учётную запись.
func (s *candidateRecordsService) AcknowledgePolicy(ctx context.Context, actor domain.Actor, candidateID, policyID int64) (*domain.PolicyAcknowledgment, error) {
	candidate, err := s.candidates.GetByID(ctx, actor.TenantID, candidateID)
	if err != nil {
		return nil, err
	}
	res := access.Resource{}
	if candidate.UserID != nil {
		res.EmployeeID = *candidate.UserID
	}
	if err := s.checker.Check(ctx, actor, access.OnboardingAcknowledge, res); err != nil {
		return nil, err
	}

	policy, err := s.policies.GetByID(ctx, actor.TenantID, policyID)
	if err != nil {
		return nil, err
	}
	if policy.Status != domain.PolicyPublished || !policy.RequiresAcknowledgment {
		return nil, domain.ErrPolicyNotApplicable
	}

	ack := &domain.PolicyAcknowledgment{
		TenantID:       actor.TenantID,
		PolicyID:       policyID,
		CandidateID:    candidateID,
		AcknowledgedAt: s.now(),
	}
	if err := s.policies.Acknowledge(ctx, ack); err != nil {
		return nil, err
	}

	s.audit.LogCreate(ctx, actor, "policy_acknowledgment", ack.ID, "policy acknowledged: "+policy.Title, nil)
	return ack, nil
}
