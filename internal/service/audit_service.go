package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/repository"
	"gorm.io/datatypes"
)

// Действия журнала аудита
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// AuditLogger записывает изменения в журнал аудита. Ошибки записи только логируются
// и никогда не прерывают основную операцию.
type AuditLogger interface {
	LogCreate(ctx context.Context, actor domain.Actor, resourceType string, resourceID int64, description string, payload any)
	LogUpdate(ctx context.Context, actor domain.Actor, resourceType string, resourceID int64, description string, payload any)
	LogDelete(ctx context.Context, actor domain.Actor, resourceType string, resourceID int64, description string, payload any)
}

type auditLogger struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

// NewAuditLogger создаёт новый экземпляр журнала аудита
func NewAuditLogger(repo repository.AuditRepository, logger *slog.Logger) AuditLogger {
	return &auditLogger{repo: repo, logger: logger}
}

func (a *auditLogger) LogCreate(ctx context.Context, actor domain.Actor, resourceType string, resourceID int64, description string, payload any) {
	a.write(ctx, actor, AuditCreate, resourceType, resourceID, description, payload)
}

func (a *auditLogger) LogUpdate(ctx context.Context, actor domain.Actor, resourceType string, resourceID int64, description string, payload any) {
	a.write(ctx, actor, AuditUpdate, resourceType, resourceID, description, payload)
}

func (a *auditLogger) LogDelete(ctx context.Context, actor domain.Actor, resourceType string, resourceID int64, description string, payload any) {
	a.write(ctx, actor, AuditDelete, resourceType, resourceID, description, payload)
}

func (a *auditLogger) write(ctx context.Context, actor domain.Actor, action, resourceType string, resourceID int64, description string, payload any) {
	meta := domain.RequestMetaFrom(ctx)
	entry := &domain.AuditLog{
		TenantID:     actor.TenantID,
		ActorID:      actor.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Description:  description,
		RequestID:    meta.RequestID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			a.logger.Warn("failed to marshal audit payload",
				slog.String("resource_type", resourceType),
				slog.Any("error", err),
			)
		} else {
			entry.Payload = datatypes.JSON(data)
		}
	}

	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.Error("failed to write audit log",
			slog.String("action", action),
			slog.String("resource_type", resourceType),
			slog.Int64("resource_id", resourceID),
			slog.Any("error", err),
		)
	}
}
