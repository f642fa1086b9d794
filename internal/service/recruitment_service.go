package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/headoffice-api/internal/access"
	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/report"
	"github.com/headoffice-api/internal/repository"
)

// RecruitmentService ведёт кандидата по воронке найма
type RecruitmentService interface {
	CreateCandidate(ctx context.Context, actor domain.Actor, req *dto.CreateCandidateRequest) (*domain.Candidate, error)
	TransitionStage(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.TransitionStageRequest) (*dto.TransitionResponse, error)
	ScheduleInterview(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.ScheduleInterviewRequest) (*dto.InterviewResponse, error)
	CompleteInterview(ctx context.Context, actor domain.Actor, candidateID, interviewID int64, req *dto.CompleteInterviewRequest) (*domain.CandidateInterview, error)
	AddNote(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.AddNoteRequest) (*domain.CandidateNote, error)
	MakeOffer(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.MakeOfferRequest) (*dto.TransitionResponse, error)
	AcceptOffer(ctx context.Context, actor domain.Actor, candidateID int64) (*dto.TransitionResponse, error)
	GetPipeline(ctx context.Context, actor domain.Actor) (*dto.PipelineResponse, error)
	GetStageHistory(ctx context.Context, actor domain.Actor, candidateID int64) ([]domain.CandidateStageHistory, error)
	ExportPipeline(ctx context.Context, actor domain.Actor) ([]byte, error)
}

type recruitmentService struct {
	tx          repository.Transactor
	candidates  repository.CandidateRepository
	outbox      repository.OutboxRepository
	provisioner Provisioner
	checker     *access.Checker
	audit       AuditLogger
	now         Clock
}

// NewRecruitmentService создаёт новый экземпляр сервиса
func NewRecruitmentService(
	tx repository.Transactor,
	candidates repository.CandidateRepository,
	outbox repository.OutboxRepository,
	provisioner Provisioner,
	checker *access.Checker,
	audit AuditLogger,
) RecruitmentService {
	return &recruitmentService{
		tx:          tx,
		candidates:  candidates,
		outbox:      outbox,
		provisioner: provisioner,
		checker:     checker,
		audit:       audit,
		now:         systemClock,
	}
}

func (s *recruitmentService) CreateCandidate(ctx context.Context, actor domain.Actor, req *dto.CreateCandidateRequest) (*domain.Candidate, error) {
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}

	candidate := &domain.Candidate{
		TenantID:         actor.TenantID,
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		ManagerID:        req.ManagerID,
		ProposedRoleID:   req.ProposedRoleID,
		Stage:            domain.EmploymentCandidate,
		RecruitmentStage: domain.StageApplication,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.candidates.Create(ctx, candidate); err != nil {
			return err
		}
		return s.candidates.AppendHistory(ctx, &domain.CandidateStageHistory{
			TenantID:    actor.TenantID,
			CandidateID: candidate.ID,
			ToStage:     domain.StageApplication,
			ActorID:     actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCreate(ctx, actor, "candidate", candidate.ID, "candidate created", req)
	return candidate, nil
}

func (s *recruitmentService) TransitionStage(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.TransitionStageRequest) (*dto.TransitionResponse, error) {
	to := domain.RecruitmentStage(req.Stage)
	if !to.IsValid() {
		return nil, domain.ErrInvalidStage
	}
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}

	var resp *dto.TransitionResponse
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		candidate, err := s.candidates.GetForUpdate(ctx, actor.TenantID, candidateID)
		if err != nil {
			return err
		}
		resp, err = s.transition(ctx, actor, candidate, to, req.Reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.auditTransition(ctx, actor, resp)
	return resp, nil
}

// transition проверяет таблицу переходов и охранные условия, затем пишет историю,
// заметку, причину и событие. Должен вызываться внутри транзакции с заблокированным кандидатом.
func (s *recruitmentService) transition(ctx context.Context, actor domain.Actor, candidate *domain.Candidate, to domain.RecruitmentStage, reason string) (*dto.TransitionResponse, error) {
	from := candidate.RecruitmentStage
	reason = strings.TrimSpace(reason)

	if from == to {
		return nil, domain.ErrSameStage
	}

	forced := false
	if !from.CanTransitionTo(to) {
		if !actor.IsAdmin() {
			return nil, transitionNotAllowed(from, to)
		}
		if err := s.checker.Check(ctx, actor, access.RecruitmentForce, access.Resource{}); err != nil {
			return nil, err
		}
		forced = true
	}

	if err := s.checkGuards(ctx, candidate, to, reason); err != nil {
		return nil, err
	}

	candidate.RecruitmentStage = to
	switch to {
	case domain.StageRejected:
		candidate.RejectionReason = reason
	case domain.StageWithdrawn:
		candidate.WithdrawnReason = reason
	case domain.StageOfferAccepted:
		s.acceptOfferTerms(candidate)
	}
	if err := s.candidates.Update(ctx, candidate); err != nil {
		return nil, err
	}

	err := s.candidates.AppendHistory(ctx, &domain.CandidateStageHistory{
		TenantID:    candidate.TenantID,
		CandidateID: candidate.ID,
		FromStage:   from,
		ToStage:     to,
		ActorID:     actor.UserID,
		Reason:      reason,
		Forced:      forced,
	})
	if err != nil {
		return nil, err
	}

	if reason != "" {
		err := s.candidates.AddNote(ctx, &domain.CandidateNote{
			TenantID:    candidate.TenantID,
			CandidateID: candidate.ID,
			AuthorID:    actor.UserID,
			NoteType:    domain.NoteStageChange,
			Content:     fmt.Sprintf("%s -> %s: %s", from, to, reason),
		})
		if err != nil {
			return nil, err
		}
	}

	err = emit(ctx, s.outbox, candidate.TenantID, domain.EventCandidateStageChanged, domain.CandidateStageChangedPayload{
		CandidateID: candidate.ID,
		FromStage:   from,
		ToStage:     to,
		ActorID:     actor.UserID,
		Forced:      forced,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.TransitionResponse{
		Candidate: candidate,
		FromStage: string(from),
		ToStage:   string(to),
		Forced:    forced,
	}

	if to == domain.StageOfferAccepted {
		provisioning, err := s.provisioner.Provision(ctx, candidate)
		if err != nil {
			return nil, err
		}
		resp.Provisioning = provisioning

		if err := s.promoteOnAcceptance(ctx, candidate); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// promoteOnAcceptance переводит кандидата в pre_colleague без ворот A:
// принятое предложение - второй путь к этому этапу
func (s *recruitmentService) promoteOnAcceptance(ctx context.Context, candidate *domain.Candidate) error {
	if candidate.Stage != domain.EmploymentCandidate {
		return nil
	}

	candidate.Stage = domain.EmploymentPreColleague
	if err := s.candidates.Update(ctx, candidate); err != nil {
		return err
	}

	return emit(ctx, s.outbox, candidate.TenantID, domain.EventCandidatePromoted, domain.CandidatePromotedPayload{
		CandidateID: candidate.ID,
		UserID:      candidate.UserID,
		ManagerID:   candidate.ManagerID,
		FullName:    candidate.FullName(),
		FromStage:   domain.EmploymentCandidate,
		ToStage:     domain.EmploymentPreColleague,
	})
}

// checkGuards - условия, обязательные для любого инициатора, включая администратора
func (s *recruitmentService) checkGuards(ctx context.Context, candidate *domain.Candidate, to domain.RecruitmentStage, reason string) error {
	if to.RequiresReason() && reason == "" {
		return domain.ErrReasonRequired
	}

	switch to {
	case domain.StageShortlisted:
		if candidate.RecruitmentStage != domain.StageApplication {
			return nil
		}
		count, err := s.candidates.CountNotes(ctx, candidate.TenantID, candidate.ID, domain.NoteScreening)
		if err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrScreeningNoteRequired
		}

	case domain.StageInterviewComplete:
		count, err := s.candidates.CountScoredCompletedInterviews(ctx, candidate.TenantID, candidate.ID)
		if err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrCompletedInterviewMissing
		}

	case domain.StageOfferMade:
		if !candidate.OfferSalary.Valid || candidate.OfferStartDate == nil {
			return domain.ErrOfferDetailsRequired
		}
	}
	return nil
}

// acceptOfferTerms переносит условия предложения в незаполненные поля договора
func (s *recruitmentService) acceptOfferTerms(candidate *domain.Candidate) {
	now := s.now()
	if candidate.OfferAcceptedAt == nil {
		candidate.OfferAcceptedAt = &now
	}
	if candidate.ProposedRoleID == nil {
		candidate.ProposedRoleID = candidate.OfferRoleID
	}
	if !candidate.ProposedSalary.Valid {
		candidate.ProposedSalary = candidate.OfferSalary
	}
	if !candidate.ProposedHours.Valid {
		candidate.ProposedHours = candidate.OfferHours
	}
	if candidate.ProposedStartDate == nil {
		candidate.ProposedStartDate = candidate.OfferStartDate
	}
}

func transitionNotAllowed(from, to domain.RecruitmentStage) error {
	if from.IsTerminal() {
		return domain.ErrTerminalStage
	}
	allowed := from.AllowedTransitions()
	details := make([]string, 0, len(allowed))
	for _, stage := range allowed {
		details = append(details, string(stage))
	}
	return domain.NewStateError(fmt.Sprintf("cannot move candidate from %s to %s", from, to), details)
}

func (s *recruitmentService) ScheduleInterview(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.ScheduleInterviewRequest) (*dto.InterviewResponse, error) {
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}

	interview := &domain.CandidateInterview{
		TenantID:      actor.TenantID,
		CandidateID:   candidateID,
		InterviewerID: req.InterviewerID,
		InterviewType: strings.TrimSpace(req.InterviewType),
		ScheduledAt:   req.ScheduledAt.UTC(),
		Location:      strings.TrimSpace(req.Location),
		Status:        domain.InterviewScheduled,
	}

	var (
		stage      domain.RecruitmentStage
		transition *dto.TransitionResponse
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		candidate, err := s.candidates.GetForUpdate(ctx, actor.TenantID, candidateID)
		if err != nil {
			return err
		}
		switch candidate.RecruitmentStage {
		case domain.StageOfferAccepted, domain.StageOfferDeclined, domain.StageRejected, domain.StageWithdrawn:
			return domain.NewStateError(
				fmt.Sprintf("interviews cannot be scheduled for a candidate in stage %s", candidate.RecruitmentStage), nil)
		}

		if err := s.candidates.CreateInterview(ctx, interview); err != nil {
			return err
		}

		var next domain.RecruitmentStage
		switch candidate.RecruitmentStage {
		case domain.StageShortlisted:
			next = domain.StageInterviewRequested
		case domain.StageInterviewRequested:
			next = domain.StageInterviewScheduled
		}
		if next != "" {
			transition, err = s.transition(ctx, actor, candidate, next, "")
			if err != nil {
				return err
			}
		}
		stage = candidate.RecruitmentStage
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCreate(ctx, actor, "candidate_interview", interview.ID, "interview scheduled", req)
	if transition != nil {
		s.auditTransition(ctx, actor, transition)
	}
	return &dto.InterviewResponse{Interview: interview, RecruitmentStage: stage}, nil
}

func (s *recruitmentService) CompleteInterview(ctx context.Context, actor domain.Actor, candidateID, interviewID int64, req *dto.CompleteInterviewRequest) (*domain.CandidateInterview, error) {
	if req.Score < 1 || req.Score > 10 {
		return nil, domain.ErrInterviewScoreRange
	}
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}

	var interview *domain.CandidateInterview
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		interview, err = s.candidates.GetInterview(ctx, actor.TenantID, candidateID, interviewID)
		if err != nil {
			return err
		}
		if interview.Status == domain.InterviewCompleted {
			return domain.ErrInterviewAlreadyComplete
		}

		now := s.now()
		score := req.Score
		interview.Status = domain.InterviewCompleted
		interview.Score = &score
		interview.Feedback = strings.TrimSpace(req.Feedback)
		interview.CompletedAt = &now
		if err := s.candidates.UpdateInterview(ctx, interview); err != nil {
			return err
		}

		if interview.Feedback == "" {
			return nil
		}
		return s.candidates.AddNote(ctx, &domain.CandidateNote{
			TenantID:    actor.TenantID,
			CandidateID: candidateID,
			AuthorID:    actor.UserID,
			NoteType:    domain.NoteInterview,
			Content:     interview.Feedback,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogUpdate(ctx, actor, "candidate_interview", interview.ID, "interview completed", req)
	return interview, nil
}

func (s *recruitmentService) AddNote(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.AddNoteRequest) (*domain.CandidateNote, error) {
	noteType := domain.NoteType(req.NoteType)
	switch noteType {
	case domain.NoteScreening, domain.NoteGeneral, domain.NoteInterview:
	default:
		return nil, domain.Validationf("note_type must be one of screening, general, interview")
	}
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.candidates.GetByID(ctx, actor.TenantID, candidateID); err != nil {
		return nil, err
	}

	note := &domain.CandidateNote{
		TenantID:    actor.TenantID,
		CandidateID: candidateID,
		AuthorID:    actor.UserID,
		NoteType:    noteType,
		Content:     strings.TrimSpace(req.Content),
	}
	if err := s.candidates.AddNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// MakeOffer фиксирует условия предложения. Из final_shortlist кандидат переходит в
// offer_made; в offer_made условия можно уточнить без смены стадии.
func (s *recruitmentService) MakeOffer(ctx context.Context, actor domain.Actor, candidateID int64, req *dto.MakeOfferRequest) (*dto.TransitionResponse, error) {
	if req.Salary == nil || !req.Salary.IsPositive() {
		return nil, domain.Validationf("salary must be a positive amount")
	}
	if req.Hours != nil && !req.Hours.IsPositive() {
		return nil, domain.Validationf("hours must be positive")
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}

	var resp *dto.TransitionResponse
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		candidate, err := s.candidates.GetForUpdate(ctx, actor.TenantID, candidateID)
		if err != nil {
			return err
		}
		if candidate.RecruitmentStage != domain.StageFinalShortlist && candidate.RecruitmentStage != domain.StageOfferMade {
			return domain.ErrOfferNotOpen
		}

		now := s.now()
		candidate.OfferSalary.Decimal = *req.Salary
		candidate.OfferSalary.Valid = true
		if req.Hours != nil {
			candidate.OfferHours.Decimal = *req.Hours
			candidate.OfferHours.Valid = true
		}
		if req.RoleID != nil {
			candidate.OfferRoleID = req.RoleID
		}
		candidate.OfferStartDate = datePtr(startDate)
		candidate.OfferMadeAt = &now

		if candidate.RecruitmentStage == domain.StageOfferMade {
			if err := s.candidates.Update(ctx, candidate); err != nil {
				return err
			}
			resp = &dto.TransitionResponse{
				Candidate: candidate,
				FromStage: string(domain.StageOfferMade),
				ToStage:   string(domain.StageOfferMade),
			}
			return nil
		}

		resp, err = s.transition(ctx, actor, candidate, domain.StageOfferMade, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogUpdate(ctx, actor, "candidate", candidateID, "offer made", req)
	return resp, nil
}

func (s *recruitmentService) AcceptOffer(ctx context.Context, actor domain.Actor, candidateID int64) (*dto.TransitionResponse, error) {
	return s.TransitionStage(ctx, actor, candidateID, &dto.TransitionStageRequest{Stage: string(domain.StageOfferAccepted)})
}

func (s *recruitmentService) GetPipeline(ctx context.Context, actor domain.Actor) (*dto.PipelineResponse, error) {
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}

	counts, err := s.candidates.CountByRecruitmentStage(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidates.List(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PipelineResponse{
		Stages:     make([]dto.StageCount, 0, len(domain.RecruitmentStages())),
		Candidates: make([]dto.CandidateSummary, 0, len(candidates)),
	}
	for _, stage := range domain.RecruitmentStages() {
		resp.Stages = append(resp.Stages, dto.StageCount{Stage: stage, Count: counts[stage]})
	}
	for i := range candidates {
		c := &candidates[i]
		resp.Candidates = append(resp.Candidates, dto.CandidateSummary{
			ID:               c.ID,
			FullName:         c.FullName(),
			Email:            c.Email,
			Stage:            c.Stage,
			RecruitmentStage: c.RecruitmentStage,
			UpdatedAt:        c.UpdatedAt,
		})
	}
	return resp, nil
}

func (s *recruitmentService) GetStageHistory(ctx context.Context, actor domain.Actor, candidateID int64) ([]domain.CandidateStageHistory, error) {
	if err := s.checker.Check(ctx, actor, access.RecruitmentManage, access.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.candidates.GetByID(ctx, actor.TenantID, candidateID); err != nil {
		return nil, err
	}
	return s.candidates.ListHistory(ctx, actor.TenantID, candidateID)
}

// ExportPipeline выгружает воронку в XLSX
func (s *recruitmentService) ExportPipeline(ctx context.Context, actor domain.Actor) ([]byte, error) {
	pipeline, err := s.GetPipeline(ctx, actor)
	if err != nil {
		return nil, err
	}
	return report.PipelineWorkbook(pipeline, s.now())
}

func (s *recruitmentService) auditTransition(ctx context.Context, actor domain.Actor, resp *dto.TransitionResponse) {
	description := fmt.Sprintf("recruitment stage %s -> %s", resp.FromStage, resp.ToStage)
	if resp.Forced {
		description += " (forced by administrator)"
	}
	s.audit.LogUpdate(ctx, actor, "candidate", resp.Candidate.ID, description, map[string]any{
		"from_stage": resp.FromStage,
		"to_stage":   resp.ToStage,
		"forced":     resp.Forced,
	})
}
