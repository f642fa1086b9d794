package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/headoffice-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimOptions - параметры захвата пачки событий обработчиком
type ClaimOptions struct {
	WorkerID    string
	BatchSize   int
	LockTTL     time.Duration
	MaxAttempts int
}

// OutboxRepository определяет интерфейс исходящего журнала доменных событий
type OutboxRepository interface {
	Append(ctx context.Context, event *domain.DomainEvent) error
	ClaimBatch(ctx context.Context, opts ClaimOptions) ([]domain.DomainEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository создаёт новый экземпляр репозитория
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// Append пишет событие в текущую транзакцию бизнес-операции
func (r *outboxRepository) Append(ctx context.Context, event *domain.DomainEvent) error {
	return conn(ctx, r.db).Create(event).Error
}

// ClaimBatch в отдельной транзакции выбирает необработанные события и помечает их
// владельцем. Строки, заблокированные другим обработчиком, пропускаются; просроченная
// метка (старше LockTTL) считается освобождённой.
func (r *outboxRepository) ClaimBatch(ctx context.Context, opts ClaimOptions) ([]domain.DomainEvent, error) {
	now := time.Now().UTC()
	staleBefore := now.Add(-opts.LockTTL)

	var claimed []domain.DomainEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.
			Where("processed_at IS NULL").
			Where("(locked_at IS NULL OR locked_at <= ?)", staleBefore).
			Order("created_at ASC").
			Limit(opts.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if opts.MaxAttempts > 0 {
			query = query.Where("attempts < ?", opts.MaxAttempts)
		}
		if err := query.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(claimed))
		for i := range claimed {
			ids[i] = claimed[i].ID
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = opts.WorkerID
		}
		return tx.Model(&domain.DomainEvent{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"locked_at": now, "locked_by": opts.WorkerID}).Error
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.DomainEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed_at": at,
			"attempts":     gorm.Expr("attempts + 1"),
			"locked_at":    nil,
			"locked_by":    "",
		}).Error
}

// MarkFailed снимает блокировку и запоминает ошибку; событие будет повторено
// следующим проходом, пока не исчерпан лимит попыток
func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&domain.DomainEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
			"locked_at":  nil,
			"locked_by":  "",
		}).Error
}
