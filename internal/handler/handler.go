package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
)

// base - общие для всех обработчиков разбор запроса и формирование ответа
type base struct {
	validator *validator.Validate
	logger    *slog.Logger
}

func newBase(logger *slog.Logger) base {
	return base{validator: validator.New(), logger: logger}
}

// actor возвращает аутентифицированного участника; без него запрос отклоняется
func (b *base) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := domain.ActorFrom(r.Context())
	if !ok {
		b.respondError(w, http.StatusUnauthorized, "unauthorized", "")
		return domain.Actor{}, false
	}
	return actor, true
}

// decode разбирает тело запроса и проверяет его теги validate
func (b *base) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		b.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return b.validate(w, dst)
}

func (b *base) validate(w http.ResponseWriter, v any) bool {
	if err := b.validator.Struct(v); err != nil {
		b.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return false
	}
	return true
}

// pathID разбирает числовой параметр пути
func (b *base) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		b.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name), "")
		return 0, false
	}
	return id, true
}

// queryInt64 разбирает необязательный числовой параметр строки запроса
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &v, nil
}

func queryString(r *http.Request, name string) *string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}

// handleServiceError переводит вид бизнес-ошибки в HTTP статус.
// Внутренние ошибки логируются и не раскрываются клиенту.
func (b *base) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindState:
		status = http.StatusBadRequest
	case domain.KindPermission:
		status = http.StatusForbidden
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	default:
		b.logger.Error("internal error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", domain.RequestMetaFrom(r.Context()).RequestID),
			slog.Any("error", err),
		)
		b.respondError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	var domainErr *domain.Error
	errors.As(err, &domainErr)
	resp := dto.ErrorResponse{
		Error:   string(domainErr.Kind),
		Message: domainErr.Message,
		Missing: domainErr.Details,
	}
	b.respondJSON(w, status, resp)
}

func (b *base) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (b *base) respondError(w http.ResponseWriter, status int, errMsg, details string) {
	w.WriteHeader(status)
	resp := dto.ErrorResponse{Error: errMsg}
	if details != "" {
		resp.Message = details
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		b.logger.Error("failed to encode error response", slog.Any("error", err))
	}
}
