package dto

// DateLayout - формат дат в запросах и ответах
const DateLayout = "2006-01-02"

// RedactedText заменяет свободный текст самооценки, скрытый от зрителя
const RedactedText = "[private]"

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// HealthResponse - ответ проверки работоспособности
type HealthResponse struct {
	Status string `json:"status"`
}
