package repository

import (
	"context"

	"github.com/headoffice-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CandidateRepository определяет интерфейс для кандидатов, их истории, заметок и собеседований
type CandidateRepository interface {
	Create(ctx context.Context, candidate *domain.Candidate) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Candidate, error)
	GetForUpdate(ctx context.Context, tenantID, id int64) (*domain.Candidate, error)
	Update(ctx context.Context, candidate *domain.Candidate) error
	List(ctx context.Context, tenantID int64) ([]domain.Candidate, error)
	CountByRecruitmentStage(ctx context.Context, tenantID int64) (map[domain.RecruitmentStage]int64, error)

	AppendHistory(ctx context.Context, entry *domain.CandidateStageHistory) error
	ListHistory(ctx context.Context, tenantID, candidateID int64) ([]domain.CandidateStageHistory, error)

	AddNote(ctx context.Context, note *domain.CandidateNote) error
	CountNotes(ctx context.Context, tenantID, candidateID int64, noteType domain.NoteType) (int64, error)

	CreateInterview(ctx context.Context, interview *domain.CandidateInterview) error
	GetInterview(ctx context.Context, tenantID, candidateID, id int64) (*domain.CandidateInterview, error)
	UpdateInterview(ctx context.Context, interview *domain.CandidateInterview) error
	CountScoredCompletedInterviews(ctx context.Context, tenantID, candidateID int64) (int64, error)
}

type candidateRepository struct {
	db *gorm.DB
}

// NewCandidateRepository создаёт новый экземпляр репозитория
func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *domain.Candidate) error {
	return conn(ctx, r.db).Create(candidate).Error
}

func (r *candidateRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Candidate, error) {
	return r.get(conn(ctx, r.db), tenantID, id)
}

// GetForUpdate читает кандидата с блокировкой строки до конца транзакции
func (r *candidateRepository) GetForUpdate(ctx context.Context, tenantID, id int64) (*domain.Candidate, error) {
	return r.get(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *candidateRepository) get(query *gorm.DB, tenantID, id int64) (*domain.Candidate, error) {
	var candidate domain.Candidate
	if err := query.Where("tenant_id = ?", tenantID).First(&candidate, id).Error; err != nil {
		return nil, notFound(err, domain.ErrCandidateNotFound)
	}
	return &candidate, nil
}

func (r *candidateRepository) Update(ctx context.Context, candidate *domain.Candidate) error {
	return conn(ctx, r.db).Save(candidate).Error
}

func (r *candidateRepository) List(ctx context.Context, tenantID int64) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	err := conn(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("updated_at DESC, id DESC").
		Find(&candidates).Error
	return candidates, err
}

func (r *candidateRepository) CountByRecruitmentStage(ctx context.Context, tenantID int64) (map[domain.RecruitmentStage]int64, error) {
	var rows []struct {
		RecruitmentStage domain.RecruitmentStage
		Total            int64
	}
	err := conn(ctx, r.db).
		Model(&domain.Candidate{}).
		Select("recruitment_stage, COUNT(*) AS total").
		Where("tenant_id = ?", tenantID).
		Group("recruitment_stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.RecruitmentStage]int64, len(rows))
	for _, row := range rows {
		counts[row.RecruitmentStage] = row.Total
	}
	return counts, nil
}

func (r *candidateRepository) AppendHistory(ctx context.Context, entry *domain.CandidateStageHistory) error {
	return conn(ctx, r.db).Create(entry).Error
}

func (r *candidateRepository) ListHistory(ctx context.Context, tenantID, candidateID int64) ([]domain.CandidateStageHistory, error) {
	var history []domain.CandidateStageHistory
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		Order("created_at ASC, id ASC").
		Find(&history).Error
	return history, err
}

func (r *candidateRepository) AddNote(ctx context.Context, note *domain.CandidateNote) error {
	return conn(ctx, r.db).Create(note).Error
}

func (r *candidateRepository) CountNotes(ctx context.Context, tenantID, candidateID int64, noteType domain.NoteType) (int64, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&domain.CandidateNote{}).
		Where("tenant_id = ? AND candidate_id = ? AND note_type = ?", tenantID, candidateID, noteType).
		Count(&count).Error
	return count, err
}

func (r *candidateRepository) CreateInterview(ctx context.Context, interview *domain.CandidateInterview) error {
	return conn(ctx, r.db).Create(interview).Error
}

func (r *candidateRepository) GetInterview(ctx context.Context, tenantID, candidateID, id int64) (*domain.CandidateInterview, error) {
	var interview domain.CandidateInterview
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND candidate_id = ?", tenantID, candidateID).
		First(&interview, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrInterviewNotFound)
	}
	return &interview, nil
}

func (r *candidateRepository) UpdateInterview(ctx context.Context, interview *domain.CandidateInterview) error {
	return conn(ctx, r.db).Save(interview).Error
}

func (r *candidateRepository) CountScoredCompletedInterviews(ctx context.Context, tenantID, candidateID int64) (int64, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&domain.CandidateInterview{}).
		Where("tenant_id = ? AND candidate_id = ? AND status = ? AND score IS NOT NULL",
			tenantID, candidateID, domain.InterviewCompleted).
		Count(&count).Error
	return count, err
}
