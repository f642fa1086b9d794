package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmploymentStatus - статус учётной записи сотрудника
type EmploymentStatus string

const (
	EmploymentStatusPreStart EmploymentStatus = "pre_start"
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

// User представляет учётную запись сотрудника в каталоге
type User struct {
	ID                 int64            `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID           int64            `json:"tenant_id" gorm:"not null;uniqueIndex:idx_users_employee_number,priority:1"`
	Email              string           `json:"email" gorm:"type:varchar(255);not null"`
	FullName           string           `json:"full_name" gorm:"type:varchar(200);not null"`
	PasswordHash       string           `json:"-" gorm:"type:varchar(255);not null"`
	EmployeeNumber     string           `json:"employee_number" gorm:"type:varchar(20);not null;uniqueIndex:idx_users_employee_number,priority:2"`
	Role               Role             `json:"role" gorm:"type:varchar(20);not null"`
	Tier               *int             `json:"tier"`
	ManagerID          *int64           `json:"manager_id" gorm:"index"`
	EmploymentStatus   EmploymentStatus `json:"employment_status" gorm:"type:varchar(20);not null"`
	MustChangePassword bool             `json:"must_change_password"`
	CreatedAt          time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// Review - недельная оценка сотрудника: самооценка или оценка руководителя.
// На пару (сотрудник, неделя) допускается не более одной строки каждого вида.
type Review struct {
	ID                  int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID            int64          `json:"tenant_id" gorm:"not null;uniqueIndex:idx_reviews_week_side,priority:1"`
	EmployeeID          int64          `json:"employee_id" gorm:"not null;uniqueIndex:idx_reviews_week_side,priority:2"`
	ReviewerID          int64          `json:"reviewer_id" gorm:"not null;index"`
	ReviewDate          datatypes.Date `json:"review_date" gorm:"not null;uniqueIndex:idx_reviews_week_side,priority:3"`
	IsSelfAssessment    bool           `json:"is_self_assessment" gorm:"not null;uniqueIndex:idx_reviews_week_side,priority:4"`
	IsCommitted         bool           `json:"is_committed" gorm:"not null"`
	CommittedAt         *time.Time     `json:"committed_at"`
	TasksCompleted      *int           `json:"tasks_completed"`
	WorkVolume          *int           `json:"work_volume"`
	ProblemSolving      *int           `json:"problem_solving"`
	Communication       *int           `json:"communication"`
	Leadership          *int           `json:"leadership"`
	Goals               string         `json:"goals" gorm:"type:text"`
	Achievements        string         `json:"achievements" gorm:"type:text"`
	AreasForImprovement string         `json:"areas_for_improvement" gorm:"type:text"`
	SkipWeek            bool           `json:"skip_week"`
	SkipReason          string         `json:"skip_reason" gorm:"type:text"`
	CreatedAt           time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Review) TableName() string {
	return "reviews"
}

// PolicyStatus - статус публикации политики
type PolicyStatus string

const (
	PolicyDraft     PolicyStatus = "draft"
	PolicyPublished PolicyStatus = "published"
)

type Policy struct {
	ID                     int64        `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID               int64        `json:"tenant_id" gorm:"not null;index"`
	Title                  string       `json:"title" gorm:"type:varchar(255);not null"`
	Status                 PolicyStatus `json:"status" gorm:"type:varchar(20);not null"`
	RequiresAcknowledgment bool         `json:"requires_acknowledgment"`
	CreatedAt              time.Time    `json:"created_at" gorm:"autoCreateTime"`
}

func (Policy) TableName() string {
	return "policies"
}

type PolicyAcknowledgment struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID       int64     `json:"tenant_id" gorm:"not null"`
	PolicyID       int64     `json:"policy_id" gorm:"not null;uniqueIndex:idx_policy_ack,priority:1"`
	CandidateID    int64     `json:"candidate_id" gorm:"not null;uniqueIndex:idx_policy_ack,priority:2"`
	AcknowledgedAt time.Time `json:"acknowledged_at"`
}

func (PolicyAcknowledgment) TableName() string {
	return "policy_acknowledgments"
}

// ProbationStatus - состояние испытательного срока
type ProbationStatus string

const (
	ProbationActive    ProbationStatus = "active"
	ProbationCompleted ProbationStatus = "completed"
	ProbationExtended  ProbationStatus = "extended"
	ProbationFailed    ProbationStatus = "failed"
)

type ProbationPeriod struct {
	ID         int64             `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID   int64             `json:"tenant_id" gorm:"not null"`
	EmployeeID int64             `json:"employee_id" gorm:"not null;index"`
	StartDate  datatypes.Date    `json:"start_date" gorm:"not null"`
	EndDate    datatypes.Date    `json:"end_date" gorm:"not null"`
	Status     ProbationStatus   `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time         `json:"created_at" gorm:"autoCreateTime"`
	Reviews    []ProbationReview `json:"reviews,omitempty" gorm:"foreignKey:ProbationID;constraint:OnDelete:CASCADE"`
}

func (ProbationPeriod) TableName() string {
	return "probation_periods"
}

type ProbationReview struct {
	ID            int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID      int64          `json:"tenant_id" gorm:"not null"`
	ProbationID   int64          `json:"probation_id" gorm:"not null;index"`
	EmployeeID    int64          `json:"employee_id" gorm:"not null"`
	Milestone     string         `json:"milestone" gorm:"type:varchar(20);not null"`
	ScheduledDate datatypes.Date `json:"scheduled_date" gorm:"not null"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null"`
}

func (ProbationReview) TableName() string {
	return "probation_reviews"
}

// Notification - уведомление внутри приложения
type Notification struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID    int64      `json:"tenant_id" gorm:"not null"`
	UserID      int64      `json:"user_id" gorm:"not null;index"`
	Type        string     `json:"type" gorm:"type:varchar(50);not null"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Message     string     `json:"message" gorm:"type:text"`
	RelatedID   *int64     `json:"related_id"`
	RelatedType string     `json:"related_type" gorm:"type:varchar(50)"`
	IsRead      bool       `json:"is_read"`
	EventID     *uuid.UUID `json:"-" gorm:"type:uuid;index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

// AuditLog - неизменяемая запись журнала аудита
type AuditLog struct {
	ID           int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID     int64          `json:"tenant_id" gorm:"not null;index"`
	ActorID      int64          `json:"actor_id" gorm:"not null"`
	Action       string         `json:"action" gorm:"type:varchar(20);not null"`
	ResourceType string         `json:"resource_type" gorm:"type:varchar(50);not null"`
	ResourceID   int64          `json:"resource_id"`
	Description  string         `json:"description" gorm:"type:text"`
	Payload      datatypes.JSON `json:"payload"`
	RequestID    string         `json:"request_id" gorm:"type:varchar(64)"`
	IPAddress    string         `json:"ip_address" gorm:"type:varchar(64)"`
	UserAgent    string         `json:"user_agent" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
