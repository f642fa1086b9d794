package domain

// RecruitmentStage - позиция кандидата в воронке найма
type RecruitmentStage string

const (
	StageApplication        RecruitmentStage = "application"
	StageShortlisted        RecruitmentStage = "shortlisted"
	StageInterviewRequested RecruitmentStage = "interview_requested"
	StageInterviewScheduled RecruitmentStage = "interview_scheduled"
	StageInterviewComplete  RecruitmentStage = "interview_complete"
	StageFurtherAssessment  RecruitmentStage = "further_assessment"
	StageFinalShortlist     RecruitmentStage = "final_shortlist"
	StageOfferMade          RecruitmentStage = "offer_made"
	StageOfferAccepted      RecruitmentStage = "offer_accepted"
	StageOfferDeclined      RecruitmentStage = "offer_declined"
	StageRejected           RecruitmentStage = "rejected"
	StageWithdrawn          RecruitmentStage = "withdrawn"
)

var recruitmentStages = []RecruitmentStage{
	StageApplication,
	StageShortlisted,
	StageInterviewRequested,
	StageInterviewScheduled,
	StageInterviewComplete,
	StageFurtherAssessment,
	StageFinalShortlist,
	StageOfferMade,
	StageOfferAccepted,
	StageOfferDeclined,
	StageRejected,
	StageWithdrawn,
}

var recruitmentTransitions = map[RecruitmentStage][]RecruitmentStage{
	StageApplication:        {StageShortlisted, StageRejected, StageWithdrawn},
	StageShortlisted:        {StageInterviewRequested, StageRejected, StageWithdrawn},
	StageInterviewRequested: {StageInterviewScheduled, StageRejected, StageWithdrawn},
	StageInterviewScheduled: {StageInterviewComplete, StageFurtherAssessment, StageFinalShortlist, StageRejected, StageWithdrawn},
	StageInterviewComplete:  {StageFurtherAssessment, StageFinalShortlist, StageRejected, StageWithdrawn},
	StageFurtherAssessment:  {StageInterviewScheduled, StageFinalShortlist, StageRejected, StageWithdrawn},
	StageFinalShortlist:     {StageOfferMade, StageRejected, StageWithdrawn},
	StageOfferMade:          {StageOfferAccepted, StageOfferDeclined, StageWithdrawn},
	StageOfferAccepted:      {},
	StageOfferDeclined:      {StageApplication, StageShortlisted},
	StageRejected:           {StageApplication, StageShortlisted},
	StageWithdrawn:          {StageApplication, StageShortlisted},
}

// RecruitmentStages возвращает все стадии в порядке воронки
func RecruitmentStages() []RecruitmentStage {
	out := make([]RecruitmentStage, len(recruitmentStages))
	copy(out, recruitmentStages)
	return out
}

func (s RecruitmentStage) IsValid() bool {
	_, ok := recruitmentTransitions[s]
	return ok
}

// AllowedTransitions возвращает стадии, доступные из s без принудительного перевода
func (s RecruitmentStage) AllowedTransitions() []RecruitmentStage {
	return recruitmentTransitions[s]
}

func (s RecruitmentStage) CanTransitionTo(to RecruitmentStage) bool {
	for _, allowed := range recruitmentTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s RecruitmentStage) IsTerminal() bool {
	return s == StageOfferAccepted
}

// RequiresReason - переход в эту стадию требует указания причины
func (s RecruitmentStage) RequiresReason() bool {
	return s == StageRejected || s == StageWithdrawn
}

// EmploymentStage - этап жизненного цикла занятости, независимый от воронки найма
type EmploymentStage string

const (
	EmploymentCandidate    EmploymentStage = "candidate"
	EmploymentPreColleague EmploymentStage = "pre_colleague"
	EmploymentActive       EmploymentStage = "active"
)

// Next возвращает следующий этап; этапы движутся только вперёд
func (s EmploymentStage) Next() (EmploymentStage, bool) {
	switch s {
	case EmploymentCandidate:
		return EmploymentPreColleague, true
	case EmploymentPreColleague:
		return EmploymentActive, true
	default:
		return "", false
	}
}
