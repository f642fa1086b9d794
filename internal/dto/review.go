package dto

import (
	"time"

	"github.com/headoffice-api/internal/kpi"
)

// Ratings - пять оценок по шкале 1..10
type Ratings struct {
	TasksCompleted *int `json:"tasks_completed" validate:"omitempty,min=1,max=10"`
	WorkVolume     *int `json:"work_volume" validate:"omitempty,min=1,max=10"`
	ProblemSolving *int `json:"problem_solving" validate:"omitempty,min=1,max=10"`
	Communication  *int `json:"communication" validate:"omitempty,min=1,max=10"`
	Leadership     *int `json:"leadership" validate:"omitempty,min=1,max=10"`
}

// CreateSelfReflectionRequest - запрос на создание самооценки за неделю
type CreateSelfReflectionRequest struct {
	ReviewDate string `json:"review_date" validate:"required,datetime=2006-01-02"`
	Ratings
	Goals               string `json:"goals" validate:"max=5000"`
	Achievements        string `json:"achievements" validate:"max=5000"`
	AreasForImprovement string `json:"areas_for_improvement" validate:"max=5000"`
	SkipWeek            bool   `json:"skip_week"`
	SkipReason          string `json:"skip_reason" validate:"max=1000"`
}

// CreateManagerReviewRequest - запрос на создание оценки руководителя
type CreateManagerReviewRequest struct {
	EmployeeID int64  `json:"employee_id" validate:"required,min=1"`
	ReviewDate string `json:"review_date" validate:"required,datetime=2006-01-02"`
	Ratings
	Goals               string `json:"goals" validate:"max=5000"`
	Achievements        string `json:"achievements" validate:"max=5000"`
	AreasForImprovement string `json:"areas_for_improvement" validate:"max=5000"`
	SkipWeek            bool   `json:"skip_week"`
	SkipReason          string `json:"skip_reason" validate:"max=1000"`
}

// UpdateReviewRequest - частичное обновление черновика; отсутствующие поля не меняются
type UpdateReviewRequest struct {
	Ratings
	Goals               *string `json:"goals" validate:"omitempty,max=5000"`
	Achievements        *string `json:"achievements" validate:"omitempty,max=5000"`
	AreasForImprovement *string `json:"areas_for_improvement" validate:"omitempty,max=5000"`
	SkipWeek            *bool   `json:"skip_week"`
	SkipReason          *string `json:"skip_reason" validate:"omitempty,max=1000"`
}

// ListReviewsQuery - параметры выборки оценок
type ListReviewsQuery struct {
	EmployeeID *int64  `validate:"omitempty,min=1"`
	From       *string `validate:"omitempty,datetime=2006-01-02"`
	To         *string `validate:"omitempty,datetime=2006-01-02"`
}

// TrendQuery - параметры квартального тренда
type TrendQuery struct {
	EmployeeID int64 `validate:"required,min=1"`
	Year       int   `validate:"required,min=2000,max=2100"`
	Quarter    int   `validate:"required,min=1,max=4"`
}

// ReviewResponse - оценка в том виде, в каком её может видеть зритель.
// Числовые поля отсутствуют, пока они скрыты протоколом слепой оценки.
type ReviewResponse struct {
	ID                  int64        `json:"id"`
	EmployeeID          int64        `json:"employee_id"`
	ReviewerID          int64        `json:"reviewer_id"`
	ReviewDate          string       `json:"review_date"`
	IsSelfAssessment    bool         `json:"is_self_assessment"`
	IsCommitted         bool         `json:"is_committed"`
	CommittedAt         *time.Time   `json:"committed_at"`
	Revealed            bool         `json:"revealed"`
	TasksCompleted      *int         `json:"tasks_completed,omitempty"`
	WorkVolume          *int         `json:"work_volume,omitempty"`
	ProblemSolving      *int         `json:"problem_solving,omitempty"`
	Communication       *int         `json:"communication,omitempty"`
	Leadership          *int         `json:"leadership,omitempty"`
	Metrics             *kpi.Metrics `json:"metrics,omitempty"`
	Goals               string       `json:"goals"`
	Achievements        string       `json:"achievements"`
	AreasForImprovement string       `json:"areas_for_improvement"`
	TextRedacted        bool         `json:"text_redacted,omitempty"`
	SkipWeek            bool         `json:"skip_week"`
	SkipReason          string       `json:"skip_reason,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// CommitResponse - результат подтверждения оценки. До совместного подтверждения
// содержит только статус; после него - обе записи с показателями.
type CommitResponse struct {
	ReviewID       int64           `json:"review_id"`
	IsCommitted    bool            `json:"is_committed"`
	CommittedAt    *time.Time      `json:"committed_at"`
	BothCommitted  bool            `json:"both_committed"`
	SelfReflection *ReviewResponse `json:"self_reflection,omitempty"`
	ManagerReview  *ReviewResponse `json:"manager_review,omitempty"`
}

// ReflectionStatusResponse - состояние самооценки сотрудника за неделю
type ReflectionStatusResponse struct {
	WeekEnding             string          `json:"week_ending"`
	BothCommitted          bool            `json:"both_committed"`
	ManagerReviewCommitted bool            `json:"manager_review_committed"`
	IsOverdue              bool            `json:"is_overdue"`
	SelfReflection         *ReviewResponse `json:"self_reflection"`
	ManagerReview          *ReviewResponse `json:"manager_review,omitempty"`
}

// TeamMemberStatus - последние раскрытые показатели подчинённого
type TeamMemberStatus struct {
	EmployeeID         int64          `json:"employee_id"`
	FullName           string         `json:"full_name"`
	LastRevealedWeek   *string        `json:"last_revealed_week"`
	Freshness          *kpi.Freshness `json:"freshness,omitempty"`
	ManagerMetrics     *kpi.Metrics   `json:"manager_metrics,omitempty"`
	SelfMetrics        *kpi.Metrics   `json:"self_metrics,omitempty"`
	CurrentWeekSelf    bool           `json:"current_week_self_committed"`
	CurrentWeekManager bool           `json:"current_week_manager_committed"`
}

// TeamStatusResponse - сводка по команде руководителя
type TeamStatusResponse struct {
	WeekEnding string             `json:"week_ending"`
	Members    []TeamMemberStatus `json:"members"`
}

// TrendResponse - квартальные показатели по усреднённым раскрытым оценкам
type TrendResponse struct {
	EmployeeID    int64       `json:"employee_id"`
	Year          int         `json:"year"`
	Quarter       int         `json:"quarter"`
	RevealedWeeks int         `json:"revealed_weeks"`
	Manager       kpi.Metrics `json:"manager"`
	Self          kpi.Metrics `json:"self"`
}
