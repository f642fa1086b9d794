package dto

import (
	"time"

	"github.com/headoffice-api/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateCandidateRequest - запрос на регистрацию кандидата
type CreateCandidateRequest struct {
	FirstName      string `json:"first_name" validate:"required,min=1,max=100"`
	LastName       string `json:"last_name" validate:"required,min=1,max=100"`
	Email          string `json:"email" validate:"required,email,max=255"`
	ManagerID      *int64 `json:"manager_id" validate:"omitempty,min=1"`
	ProposedRoleID *int64 `json:"proposed_role_id" validate:"omitempty,min=1"`
}

// TransitionStageRequest - запрос на смену стадии найма
type TransitionStageRequest struct {
	Stage  string `json:"stage" validate:"required"`
	Reason string `json:"reason" validate:"max=2000"`
}

// AddNoteRequest - заметка о кандидате; stage_change пишется только системой
type AddNoteRequest struct {
	NoteType string `json:"note_type" validate:"required,oneof=screening general interview"`
	Content  string `json:"content" validate:"required,min=1,max=5000"`
}

// ScheduleInterviewRequest - запрос на назначение собеседования
type ScheduleInterviewRequest struct {
	ScheduledAt   time.Time `json:"scheduled_at" validate:"required"`
	InterviewerID *int64    `json:"interviewer_id" validate:"omitempty,min=1"`
	InterviewType string    `json:"interview_type" validate:"max=50"`
	Location      string    `json:"location" validate:"max=255"`
}

// CompleteInterviewRequest - итог собеседования
type CompleteInterviewRequest struct {
	Score    int    `json:"score" validate:"required,min=1,max=10"`
	Feedback string `json:"feedback" validate:"max=5000"`
}

// MakeOfferRequest - условия предложения о работе
type MakeOfferRequest struct {
	Salary    *decimal.Decimal `json:"salary" validate:"required"`
	StartDate string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	RoleID    *int64           `json:"role_id" validate:"omitempty,min=1"`
	Hours     *decimal.Decimal `json:"hours"`
}

// UpdateContractRequest - частичное обновление условий договора
type UpdateContractRequest struct {
	ProposedRoleID    *int64           `json:"proposed_role_id" validate:"omitempty,min=1"`
	ProposedSalary    *decimal.Decimal `json:"proposed_salary"`
	ProposedHours     *decimal.Decimal `json:"proposed_hours"`
	ProposedStartDate *string          `json:"proposed_start_date" validate:"omitempty,datetime=2006-01-02"`
	ContractSigned    *bool            `json:"contract_signed"`
}

// AddReferenceRequest - запрос на добавление рекомендателя
type AddReferenceRequest struct {
	RefereeName  string `json:"referee_name" validate:"required,min=1,max=200"`
	RefereeEmail string `json:"referee_email" validate:"omitempty,email,max=255"`
	Relationship string `json:"relationship" validate:"max=100"`
}

// UpdateReferenceRequest - результат проверки рекомендации
type UpdateReferenceRequest struct {
	Status string `json:"status" validate:"required,oneof=pending verified failed"`
}

// AddBackgroundCheckRequest - запрос на заведение проверки биографии
type AddBackgroundCheckRequest struct {
	CheckType  string  `json:"check_type" validate:"required,min=1,max=50"`
	Required   *bool   `json:"required"`
	ExpiryDate *string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Notes      string  `json:"notes" validate:"max=2000"`
}

// UpdateBackgroundCheckRequest - запрос на обновление проверки биографии
type UpdateBackgroundCheckRequest struct {
	Status     string  `json:"status" validate:"required,oneof=pending in_progress cleared failed"`
	ExpiryDate *string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}

// ConfirmArrivalRequest - подтверждение выхода; требует повторного ввода пароля
type ConfirmArrivalRequest struct {
	Password string `json:"password" validate:"required"`
}

// StageCount - число кандидатов на стадии
type StageCount struct {
	Stage domain.RecruitmentStage `json:"stage"`
	Count int64                   `json:"count"`
}

// CandidateSummary - краткие сведения о кандидате для воронки
type CandidateSummary struct {
	ID               int64                   `json:"id"`
	FullName         string                  `json:"full_name"`
	Email            string                  `json:"email"`
	Stage            domain.EmploymentStage  `json:"stage"`
	RecruitmentStage domain.RecruitmentStage `json:"recruitment_stage"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// PipelineResponse - воронка найма
type PipelineResponse struct {
	Stages     []StageCount       `json:"stages"`
	Candidates []CandidateSummary `json:"candidates"`
}

// TransitionResponse - результат смены стадии
type TransitionResponse struct {
	Candidate    *domain.Candidate  `json:"candidate"`
	FromStage    string             `json:"from_stage"`
	ToStage      string             `json:"to_stage"`
	Forced       bool               `json:"forced"`
	Provisioning *ProvisionResponse `json:"provisioning,omitempty"`
}

// InterviewResponse - назначенное собеседование и стадия кандидата после него
type InterviewResponse struct {
	Interview        *domain.CandidateInterview `json:"interview"`
	RecruitmentStage domain.RecruitmentStage    `json:"recruitment_stage"`
}

// ProvisionResponse - созданная учётная запись сотрудника. Временный пароль
// возвращается один раз и нигде не хранится в открытом виде.
type ProvisionResponse struct {
	UserID             int64  `json:"user_id"`
	EmployeeNumber     string `json:"employee_number"`
	Email              string `json:"email"`
	TemporaryPassword  string `json:"temporary_password,omitempty"`
	AlreadyProvisioned bool   `json:"already_provisioned"`
	TasksCreated       int    `json:"tasks_created"`
	DayOneItems        int    `json:"day_one_items"`
}

// PromotionStatusResponse - оценка ворот продвижения без побочных эффектов
type PromotionStatusResponse struct {
	CandidateID  int64                  `json:"candidate_id"`
	CurrentStage domain.EmploymentStage `json:"current_stage"`
	NextStage    domain.EmploymentStage `json:"next_stage,omitempty"`
	CanPromote   bool                   `json:"can_promote"`
	Missing      []string               `json:"missing"`
}

// ProbationResponse - созданный испытательный срок
type ProbationResponse struct {
	ID         int64    `json:"id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Milestones []string `json:"milestones"`
}

// PromoteResponse - результат продвижения кандидата
type PromoteResponse struct {
	CandidateID  int64                  `json:"candidate_id"`
	FromStage    domain.EmploymentStage `json:"from_stage"`
	ToStage      domain.EmploymentStage `json:"to_stage"`
	Provisioning *ProvisionResponse     `json:"provisioning,omitempty"`
	Probation    *ProbationResponse     `json:"probation,omitempty"`
}

// ArrivalResponse - результат подтверждения выхода
type ArrivalResponse struct {
	CandidateID int64                  `json:"candidate_id"`
	Stage       domain.EmploymentStage `json:"stage"`
	Activated   bool                   `json:"activated"`
	Missing     []string               `json:"missing,omitempty"`
	Probation   *ProbationResponse     `json:"probation,omitempty"`
}

// CandidateDetailResponse - кандидат со всеми записями адаптации
type CandidateDetailResponse struct {
	Candidate        *domain.Candidate           `json:"candidate"`
	References       []domain.CandidateReference `json:"references"`
	BackgroundChecks []domain.BackgroundCheck    `json:"background_checks"`
	OnboardingTasks  []domain.OnboardingTask     `json:"onboarding_tasks"`
	DayOne           []domain.DayOneItem         `json:"day_one"`
}
