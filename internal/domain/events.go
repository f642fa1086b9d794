package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Типы доменных событий
const (
	EventReviewsRevealed       = "reviews.revealed"
	EventEmployeeProvisioned   = "employee.provisioned"
	EventCandidatePromoted     = "candidate.promoted"
	EventCandidateStageChanged = "candidate.stage_changed"
	EventProbationCreated      = "probation.created"
	EventReviewUncommitted     = "review.uncommitted"
)

// DomainEvent - запись исходящего журнала (outbox). Пишется в той же транзакции,
// что и бизнес-изменение; доставкой занимается диспетчер.
type DomainEvent struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    int64          `json:"tenant_id" gorm:"not null"`
	EventType   string         `json:"event_type" gorm:"type:varchar(50);not null"`
	Payload     datatypes.JSON `json:"payload"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null;index"`
	ProcessedAt *time.Time     `json:"processed_at" gorm:"index"`
	Attempts    int            `json:"attempts" gorm:"not null"`
	LastError   string         `json:"last_error" gorm:"type:text"`
	LockedAt    *time.Time     `json:"locked_at"`
	LockedBy    string         `json:"locked_by" gorm:"type:varchar(100)"`
}

func (DomainEvent) TableName() string {
	return "domain_events"
}

// NewEvent сериализует полезную нагрузку и создаёт событие
func NewEvent(tenantID int64, eventType string, payload any) (*DomainEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &DomainEvent{
		ID:        uuid.New(),
		TenantID:  tenantID,
		EventType: eventType,
		Payload:   datatypes.JSON(data),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Decode разбирает полезную нагрузку события в dest
func (e *DomainEvent) Decode(dest any) error {
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}

type ReviewsRevealedPayload struct {
	EmployeeID      int64  `json:"employee_id"`
	ManagerID       int64  `json:"manager_id"`
	SelfReviewID    int64  `json:"self_review_id"`
	ManagerReviewID int64  `json:"manager_review_id"`
	ReviewDate      string `json:"review_date"`
}

type ReviewUncommittedPayload struct {
	ReviewID   int64  `json:"review_id"`
	EmployeeID int64  `json:"employee_id"`
	ReviewerID int64  `json:"reviewer_id"`
	ActorID    int64  `json:"actor_id"`
	ReviewDate string `json:"review_date"`
}

type EmployeeProvisionedPayload struct {
	CandidateID    int64  `json:"candidate_id"`
	UserID         int64  `json:"user_id"`
	ManagerID      *int64 `json:"manager_id,omitempty"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	EmployeeNumber string `json:"employee_number"`
	StartDate      string `json:"start_date,omitempty"`
}

type CandidatePromotedPayload struct {
	CandidateID int64           `json:"candidate_id"`
	UserID      *int64          `json:"user_id,omitempty"`
	ManagerID   *int64          `json:"manager_id,omitempty"`
	FullName    string          `json:"full_name"`
	FromStage   EmploymentStage `json:"from_stage"`
	ToStage     EmploymentStage `json:"to_stage"`
}

type CandidateStageChangedPayload struct {
	CandidateID int64            `json:"candidate_id"`
	FromStage   RecruitmentStage `json:"from_stage"`
	ToStage     RecruitmentStage `json:"to_stage"`
	ActorID     int64            `json:"actor_id"`
	Forced      bool             `json:"forced"`
}

type ProbationCreatedPayload struct {
	ProbationID int64  `json:"probation_id"`
	EmployeeID  int64  `json:"employee_id"`
	ManagerID   *int64 `json:"manager_id,omitempty"`
	EndDate     string `json:"end_date"`
}
