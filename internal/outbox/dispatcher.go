// Package outbox доставляет доменные события из таблицы domain_events:
// превращает их в уведомления и письма. Бизнес-операции пишут события в своей
// транзакции и не зависят от доставки.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/notify"
	"github.com/headoffice-api/internal/repository"
)

const lockKey = "headoffice:outbox:dispatch"

// Config - параметры диспетчера
type Config struct {
	WorkerID    string
	BatchSize   int
	Interval    time.Duration
	LockTTL     time.Duration
	MaxAttempts int
}

// Dispatcher обрабатывает исходящий журнал
type Dispatcher struct {
	events        repository.OutboxRepository
	notifications repository.NotificationRepository
	mailer        notify.Sender
	locker        Locker
	logger        *slog.Logger
	cfg           Config
}

// NewDispatcher создаёт новый экземпляр диспетчера
func NewDispatcher(
	events repository.OutboxRepository,
	notifications repository.NotificationRepository,
	mailer notify.Sender,
	locker Locker,
	logger *slog.Logger,
	cfg Config,
) *Dispatcher {
	if cfg.WorkerID == "" {
		cfg.WorkerID = "dispatcher-" + time.Now().UTC().Format("20060102-150405.000")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Dispatcher{
		events:        events,
		notifications: notifications,
		mailer:        mailer,
		locker:        locker,
		logger:        logger,
		cfg:           cfg,
	}
}

// Run обрабатывает журнал с заданным интервалом до отмены контекста
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("outbox dispatcher started",
		slog.String("worker_id", d.cfg.WorkerID),
		slog.Duration("interval", d.cfg.Interval),
	)
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := d.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("outbox pass failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce выполняет один проход и возвращает число успешно обработанных событий
func (d *Dispatcher) ProcessOnce(ctx context.Context) (int, error) {
	release, ok, err := d.locker.Acquire(ctx, lockKey, d.cfg.LockTTL)
	if err != nil {
		return 0, fmt.Errorf("acquire outbox lock: %w", err)
	}
	if !ok {
		return 0, nil
	}
	defer release()

	claimed, err := d.events.ClaimBatch(ctx, repository.ClaimOptions{
		WorkerID:    d.cfg.WorkerID,
		BatchSize:   d.cfg.BatchSize,
		LockTTL:     d.cfg.LockTTL,
		MaxAttempts: d.cfg.MaxAttempts,
	})
	if err != nil {
		return 0, fmt.Errorf("claim outbox batch: %w", err)
	}

	processed := 0
	for i := range claimed {
		event := &claimed[i]
		if err := d.handle(ctx, event); err != nil {
			d.logger.Error("outbox event failed",
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", event.EventType),
				slog.Int("attempt", event.Attempts+1),
				slog.Any("error", err),
			)
			if event.Attempts+1 >= d.cfg.MaxAttempts {
				d.logger.Warn("outbox event abandoned after max attempts",
					slog.String("event_id", event.ID.String()),
					slog.String("event_type", event.EventType),
				)
			}
			if err := d.events.MarkFailed(ctx, event.ID, err.Error()); err != nil {
				d.logger.Error("failed to record outbox failure", slog.String("event_id", event.ID.String()), slog.Any("error", err))
			}
			continue
		}

		if err := d.events.MarkProcessed(ctx, event.ID, time.Now().UTC()); err != nil {
			d.logger.Error("failed to mark outbox event processed", slog.String("event_id", event.ID.String()), slog.Any("error", err))
			continue
		}
		processed++
	}
	return processed, nil
}

func (d *Dispatcher) handle(ctx context.Context, event *domain.DomainEvent) error {
	switch event.EventType {
	case domain.EventReviewsRevealed:
		var p domain.ReviewsRevealedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		message := fmt.Sprintf("Both reviews for the week ending %s are committed. KPIs are now visible.", p.ReviewDate)
		return d.notifyAll(ctx, event, []notification{
			{userID: p.EmployeeID, kind: "kpis_revealed", title: "KPIs revealed", message: message, relatedID: p.SelfReviewID, relatedType: "review"},
			{userID: p.ManagerID, kind: "kpis_revealed", title: "KPIs revealed", message: message, relatedID: p.ManagerReviewID, relatedType: "review"},
		})

	case domain.EventReviewUncommitted:
		var p domain.ReviewUncommittedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		return d.notifyAll(ctx, event, []notification{{
			userID:      p.ReviewerID,
			kind:        "review_uncommitted",
			title:       "Review reopened",
			message:     fmt.Sprintf("An administrator reopened your review for the week ending %s.", p.ReviewDate),
			relatedID:   p.ReviewID,
			relatedType: "review",
		}})

	case domain.EventEmployeeProvisioned:
		var p domain.EmployeeProvisionedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		batch := []notification{{
			userID:      p.UserID,
			kind:        "welcome",
			title:       "Welcome aboard",
			message:     fmt.Sprintf("Your employee number is %s. Please change your temporary password on first login.", p.EmployeeNumber),
			relatedID:   p.CandidateID,
			relatedType: "candidate",
		}}
		if p.ManagerID != nil {
			batch = append(batch, notification{
				userID:      *p.ManagerID,
				kind:        "new_report",
				title:       "New team member",
				message:     fmt.Sprintf("%s will be joining your team.", p.FullName),
				relatedID:   p.UserID,
				relatedType: "user",
			})
		}
		if err := d.notifyAll(ctx, event, batch); err != nil {
			return err
		}
		d.sendWelcomeEmail(ctx, p)
		return nil

	case domain.EventCandidatePromoted:
		var p domain.CandidatePromotedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		var batch []notification
		if p.UserID != nil {
			batch = append(batch, notification{
				userID:      *p.UserID,
				kind:        "stage_promoted",
				title:       "Onboarding progress",
				message:     fmt.Sprintf("Your status changed from %s to %s.", p.FromStage, p.ToStage),
				relatedID:   p.CandidateID,
				relatedType: "candidate",
			})
		}
		if p.ManagerID != nil {
			batch = append(batch, notification{
				userID:      *p.ManagerID,
				kind:        "stage_promoted",
				title:       "Team member promoted",
				message:     fmt.Sprintf("%s moved from %s to %s.", p.FullName, p.FromStage, p.ToStage),
				relatedID:   p.CandidateID,
				relatedType: "candidate",
			})
		}
		return d.notifyAll(ctx, event, batch)

	case domain.EventProbationCreated:
		var p domain.ProbationCreatedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		batch := []notification{{
			userID:      p.EmployeeID,
			kind:        "probation_created",
			title:       "Probation period started",
			message:     fmt.Sprintf("Your probation period ends on %s.", p.EndDate),
			relatedID:   p.ProbationID,
			relatedType: "probation",
		}}
		if p.ManagerID != nil {
			batch = append(batch, notification{
				userID:      *p.ManagerID,
				kind:        "probation_created",
				title:       "Probation reviews scheduled",
				message:     fmt.Sprintf("Probation reviews are scheduled through %s.", p.EndDate),
				relatedID:   p.ProbationID,
				relatedType: "probation",
			})
		}
		return d.notifyAll(ctx, event, batch)

	case domain.EventCandidateStageChanged:
		// История уже записана транзакцией перехода; уведомления не нужны
		return nil

	default:
		d.logger.Warn("unknown outbox event type", slog.String("event_type", event.EventType))
		return nil
	}
}

type notification struct {
	userID      int64
	kind        string
	title       string
	message     string
	relatedID   int64
	relatedType string
}

// notifyAll создаёт по уведомлению на получателя с меткой события; при повторной
// доставке получатели, уже уведомлённые об этом событии, пропускаются
func (d *Dispatcher) notifyAll(ctx context.Context, event *domain.DomainEvent, batch []notification) error {
	eventID := event.ID
	for _, n := range batch {
		if n.userID == 0 {
			continue
		}
		exists, err := d.notifications.ExistsForEvent(ctx, event.TenantID, n.userID, eventID)
		if err != nil {
			return fmt.Errorf("check %s notification for user %d: %w", n.kind, n.userID, err)
		}
		if exists {
			continue
		}

		relatedID := n.relatedID
		err = d.notifications.Create(ctx, &domain.Notification{
			TenantID:    event.TenantID,
			UserID:      n.userID,
			Type:        n.kind,
			Title:       n.title,
			Message:     n.message,
			RelatedID:   &relatedID,
			RelatedType: n.relatedType,
			EventID:     &eventID,
		})
		if err != nil {
			return fmt.Errorf("create %s notification for user %d: %w", n.kind, n.userID, err)
		}
	}
	return nil
}

// sendWelcomeEmail не влияет на результат обработки события: ошибка только логируется
func (d *Dispatcher) sendWelcomeEmail(ctx context.Context, p domain.EmployeeProvisionedPayload) {
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your HeadOffice account has been created. Employee number: <b>%s</b>.</p>"+
			"<p>Your temporary password will be handed to you by HR. You will be asked to change it on first login.</p>",
		p.FullName, p.EmployeeNumber,
	)
	if p.StartDate != "" {
		body += fmt.Sprintf("<p>Your first day is %s.</p>", p.StartDate)
	}

	if err := d.mailer.Send(ctx, p.Email, "Welcome to HeadOffice", body); err != nil {
		d.logger.Error("failed to send welcome email",
			slog.Int64("user_id", p.UserID),
			slog.Any("error", err),
		)
	}
}
