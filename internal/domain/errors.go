package domain

import (
	"errors"
	"fmt"
)

// Kind классифицирует бизнес-ошибку для слоя транспорта
type Kind string

const (
	KindValidation Kind = "validation"
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindState      Kind = "state"
	KindInternal   Kind = "internal"
)

// Error - бизнес-ошибка с видом и, для ошибок состояния, списком невыполненных требований
type Error struct {
	Kind    Kind
	Message string
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError создаёт ошибку заданного вида
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewStateError создаёт ошибку состояния с перечнем недостающих требований
func NewStateError(message string, details []string) *Error {
	return &Error{Kind: KindState, Message: message, Details: details}
}

// Validationf форматирует ошибку валидации
func Validationf(format string, args ...any) *Error {
	return NewError(KindValidation, fmt.Sprintf(format, args...))
}

// KindOf возвращает вид ошибки; всё, что не является *Error, считается внутренней ошибкой
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// DetailsOf возвращает детали ошибки состояния, если они есть
func DetailsOf(err error) []string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// Определение бизнес-ошибок
var (
	ErrEmployeeNotFound        = NewError(KindNotFound, "employee not found")
	ErrReviewNotFound          = NewError(KindNotFound, "review not found")
	ErrCandidateNotFound       = NewError(KindNotFound, "candidate not found")
	ErrInterviewNotFound       = NewError(KindNotFound, "interview not found")
	ErrReferenceNotFound       = NewError(KindNotFound, "reference not found")
	ErrBackgroundCheckNotFound = NewError(KindNotFound, "background check not found")
	ErrOnboardingTaskNotFound  = NewError(KindNotFound, "onboarding task not found")
	ErrPolicyNotFound          = NewError(KindNotFound, "policy not found")

	ErrInvalidWeekEnding   = NewError(KindValidation, "review_date must be a Friday (week-ending date)")
	ErrRatingOutOfRange    = NewError(KindValidation, "ratings must be between 1 and 10")
	ErrSkipReasonRequired  = NewError(KindValidation, "skip_reason is required when skip_week is set")
	ErrNotSelfAssessment   = NewError(KindValidation, "review is not a self-assessment")
	ErrNotManagerReview    = NewError(KindValidation, "review is not a manager review")
	ErrSelfManagerReview   = NewError(KindValidation, "use the self-reflection endpoint to review yourself")
	ErrInvalidStage        = NewError(KindValidation, "unknown recruitment stage")
	ErrInvalidQuarter      = NewError(KindValidation, "quarter must be between 1 and 4")
	ErrInterviewScoreRange = NewError(KindValidation, "interview score must be between 1 and 10")
	ErrPolicyNotApplicable = NewError(KindValidation, "policy is not published or does not require acknowledgment")

	ErrForbidden       = NewError(KindPermission, "insufficient permissions")
	ErrAdminOnly       = NewError(KindPermission, "only administrators can perform this action")
	ErrNotManager      = NewError(KindPermission, "you do not manage this employee")
	ErrNotReviewOwner  = NewError(KindPermission, "only the review's author can change it")
	ErrPasswordInvalid = NewError(KindPermission, "password confirmation failed")

	ErrSelfReflectionExists     = NewError(KindConflict, "a self-reflection already exists for this week")
	ErrManagerReviewExists      = NewError(KindConflict, "a manager review already exists for this employee and week")
	ErrReviewAlreadyCommitted   = NewError(KindConflict, "review is already committed")
	ErrReviewNotCommitted       = NewError(KindConflict, "review is not committed")
	ErrReviewLocked             = NewError(KindConflict, "committed reviews cannot be edited")
	ErrReferenceExists          = NewError(KindConflict, "reference already recorded")
	ErrAcknowledgmentExists     = NewError(KindConflict, "policy already acknowledged")
	ErrArrivalAlreadyConfirmed  = NewError(KindConflict, "arrival already confirmed")
	ErrInterviewAlreadyComplete = NewError(KindConflict, "interview is already completed")
	ErrDuplicateRecord          = NewError(KindConflict, "resource with the same unique attributes already exists")

	ErrSameStage                 = NewError(KindState, "candidate is already in this stage")
	ErrTerminalStage             = NewError(KindState, "candidate has accepted an offer; the pipeline is closed")
	ErrScreeningNoteRequired     = NewError(KindState, "A screening note must be recorded before shortlisting")
	ErrCompletedInterviewMissing = NewError(KindState, "At least one completed interview with a score is required")
	ErrOfferDetailsRequired      = NewError(KindState, "Offer details (salary and start date) must be set first")
	ErrReasonRequired            = NewError(KindState, "A reason is required when rejecting or withdrawing a candidate")
	ErrOfferNotOpen              = NewError(KindState, "an offer can only be made from final_shortlist or updated while offer_made")
	ErrAlreadyActive             = NewError(KindState, "Candidate is already active")
	ErrNotPreColleague           = NewError(KindState, "arrival can only be confirmed for pre-colleagues")
	ErrCandidateNotProvisioned   = NewError(KindState, "candidate has no employee account")
	ErrCandidateClosed           = NewError(KindState, "candidate records are closed once the candidate is active")

	ErrEmployeeNumberExhausted = NewError(KindInternal, "could not allocate a unique employee number")
)
