package service

import (
	"context"
	"time"

	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/repository"
	"gorm.io/datatypes"
)

// Clock возвращает текущее время; подменяется в тестах
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// emit добавляет доменное событие в исходящий журнал текущей транзакции
func emit(ctx context.Context, outbox repository.OutboxRepository, tenantID int64, eventType string, payload any) error {
	event, err := domain.NewEvent(tenantID, eventType, payload)
	if err != nil {
		return err
	}
	return outbox.Append(ctx, event)
}

// parseDate разбирает дату формата YYYY-MM-DD в полночь UTC
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, value)
	if err != nil {
		return time.Time{}, domain.Validationf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// startOfDay отбрасывает время суток, оставляя дату в UTC
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDate(d datatypes.Date) string {
	return time.Time(d).Format(dto.DateLayout)
}

func formatDatePtr(d *datatypes.Date) string {
	if d == nil {
		return ""
	}
	return formatDate(*d)
}

func datePtr(t time.Time) *datatypes.Date {
	d := datatypes.Date(t)
	return &d
}
