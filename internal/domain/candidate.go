package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Candidate - человек на пути найм -> адаптация -> работа.
// Stage и RecruitmentStage - два независимых поля со своими таблицами переходов.
type Candidate struct {
	ID                 int64               `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID           int64               `json:"tenant_id" gorm:"not null;index"`
	FirstName          string              `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName           string              `json:"last_name" gorm:"type:varchar(100);not null"`
	Email              string              `json:"email" gorm:"type:varchar(255);not null"`
	ManagerID          *int64              `json:"manager_id"`
	Stage              EmploymentStage     `json:"stage" gorm:"type:varchar(20);not null;index"`
	RecruitmentStage   RecruitmentStage    `json:"recruitment_stage" gorm:"type:varchar(30);not null;index"`
	ProposedRoleID     *int64              `json:"proposed_role_id"`
	ProposedSalary     decimal.NullDecimal `json:"proposed_salary" gorm:"type:numeric(12,2)"`
	ProposedHours      decimal.NullDecimal `json:"proposed_hours" gorm:"type:numeric(5,2)"`
	ProposedStartDate  *datatypes.Date     `json:"proposed_start_date"`
	OfferRoleID        *int64              `json:"offer_role_id"`
	OfferSalary        decimal.NullDecimal `json:"offer_salary" gorm:"type:numeric(12,2)"`
	OfferHours         decimal.NullDecimal `json:"offer_hours" gorm:"type:numeric(5,2)"`
	OfferStartDate     *datatypes.Date     `json:"offer_start_date"`
	OfferMadeAt        *time.Time          `json:"offer_made_at"`
	OfferAcceptedAt    *time.Time          `json:"offer_accepted_at"`
	ContractSigned     bool                `json:"contract_signed"`
	ArrivalConfirmed   bool                `json:"arrival_confirmed"`
	ArrivalConfirmedAt *time.Time          `json:"arrival_confirmed_at"`
	ArrivalConfirmedBy *int64              `json:"arrival_confirmed_by"`
	UserID             *int64              `json:"user_id" gorm:"uniqueIndex"`
	ActualStartDate    *datatypes.Date     `json:"actual_start_date"`
	RejectionReason    string              `json:"rejection_reason" gorm:"type:text"`
	WithdrawnReason    string              `json:"withdrawn_reason" gorm:"type:text"`
	CreatedAt          time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Candidate) TableName() string {
	return "candidates"
}

func (c *Candidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// NoteType - тип заметки о кандидате
type NoteType string

const (
	NoteScreening   NoteType = "screening"
	NoteGeneral     NoteType = "general"
	NoteInterview   NoteType = "interview"
	NoteStageChange NoteType = "stage_change"
)

type CandidateNote struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID    int64     `json:"tenant_id" gorm:"not null"`
	CandidateID int64     `json:"candidate_id" gorm:"not null;index"`
	AuthorID    int64     `json:"author_id" gorm:"not null"`
	NoteType    NoteType  `json:"note_type" gorm:"type:varchar(20);not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (CandidateNote) TableName() string {
	return "candidate_notes"
}

// CandidateStageHistory - неизменяемая запись перехода по воронке
type CandidateStageHistory struct {
	ID          int64            `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID    int64            `json:"tenant_id" gorm:"not null"`
	CandidateID int64            `json:"candidate_id" gorm:"not null;index"`
	FromStage   RecruitmentStage `json:"from_stage" gorm:"type:varchar(30)"`
	ToStage     RecruitmentStage `json:"to_stage" gorm:"type:varchar(30);not null"`
	ActorID     int64            `json:"actor_id" gorm:"not null"`
	Reason      string           `json:"reason" gorm:"type:text"`
	Forced      bool             `json:"forced"`
	CreatedAt   time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

func (CandidateStageHistory) TableName() string {
	return "candidate_stage_history"
}

// InterviewStatus - статус собеседования
type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

type CandidateInterview struct {
	ID            int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID      int64           `json:"tenant_id" gorm:"not null"`
	CandidateID   int64           `json:"candidate_id" gorm:"not null;index"`
	InterviewerID *int64          `json:"interviewer_id"`
	InterviewType string          `json:"interview_type" gorm:"type:varchar(50)"`
	ScheduledAt   time.Time       `json:"scheduled_at" gorm:"not null"`
	Location      string          `json:"location" gorm:"type:varchar(255)"`
	Status        InterviewStatus `json:"status" gorm:"type:varchar(20);not null"`
	Score         *int            `json:"score"`
	Feedback      string          `json:"feedback" gorm:"type:text"`
	CompletedAt   *time.Time      `json:"completed_at"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (CandidateInterview) TableName() string {
	return "candidate_interviews"
}

// ReferenceStatus - статус проверки рекомендации
type ReferenceStatus string

const (
	ReferencePending  ReferenceStatus = "pending"
	ReferenceVerified ReferenceStatus = "verified"
	ReferenceFailed   ReferenceStatus = "failed"
)

type CandidateReference struct {
	ID           int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID     int64           `json:"tenant_id" gorm:"not null"`
	CandidateID  int64           `json:"candidate_id" gorm:"not null;index"`
	RefereeName  string          `json:"referee_name" gorm:"type:varchar(200);not null"`
	RefereeEmail string          `json:"referee_email" gorm:"type:varchar(255)"`
	Relationship string          `json:"relationship" gorm:"type:varchar(100)"`
	Status       ReferenceStatus `json:"status" gorm:"type:varchar(20);not null"`
	VerifiedAt   *time.Time      `json:"verified_at"`
	VerifiedBy   *int64          `json:"verified_by"`
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (CandidateReference) TableName() string {
	return "candidate_references"
}

// CheckStatus - статус проверки биографии
type CheckStatus string

const (
	CheckPending    CheckStatus = "pending"
	CheckInProgress CheckStatus = "in_progress"
	CheckCleared    CheckStatus = "cleared"
	CheckFailed     CheckStatus = "failed"
)

func (s CheckStatus) IsValid() bool {
	switch s {
	case CheckPending, CheckInProgress, CheckCleared, CheckFailed:
		return true
	default:
		return false
	}
}

type BackgroundCheck struct {
	ID          int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID    int64           `json:"tenant_id" gorm:"not null"`
	CandidateID int64           `json:"candidate_id" gorm:"not null;index"`
	CheckType   string          `json:"check_type" gorm:"type:varchar(50);not null"`
	Required    bool            `json:"required"`
	Status      CheckStatus     `json:"status" gorm:"type:varchar(20);not null"`
	ExpiryDate  *datatypes.Date `json:"expiry_date"`
	ClearedAt   *time.Time      `json:"cleared_at"`
	Notes       string          `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (BackgroundCheck) TableName() string {
	return "background_checks"
}

// TaskStatus - статус задачи адаптации
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

type OnboardingTask struct {
	ID                  int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID            int64           `json:"tenant_id" gorm:"not null"`
	CandidateID         int64           `json:"candidate_id" gorm:"not null;index"`
	Title               string          `json:"title" gorm:"type:varchar(255);not null"`
	Description         string          `json:"description" gorm:"type:text"`
	Category            string          `json:"category" gorm:"type:varchar(50)"`
	RequiredBeforeStart bool            `json:"required_before_start"`
	Status              TaskStatus      `json:"status" gorm:"type:varchar(20);not null"`
	DueDate             *datatypes.Date `json:"due_date"`
	CompletedAt         *time.Time      `json:"completed_at"`
	CompletedBy         *int64          `json:"completed_by"`
	CreatedAt           time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (OnboardingTask) TableName() string {
	return "onboarding_tasks"
}

// DayOneItem - пункт расписания первого рабочего дня
type DayOneItem struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID    int64  `json:"tenant_id" gorm:"not null"`
	CandidateID int64  `json:"candidate_id" gorm:"not null;index"`
	StartTime   string `json:"start_time" gorm:"type:varchar(5);not null"`
	Title       string `json:"title" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`
	Location    string `json:"location" gorm:"type:varchar(255)"`
	SortOrder   int    `json:"sort_order"`
}

func (DayOneItem) TableName() string {
	return "day_one_items"
}
