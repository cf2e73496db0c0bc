package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/entsync/pkg/api"
)

// contextKey — тип для ключей контекста, чтобы не пересекаться с чужими
type contextKey string

const (
	// UserIDKey — ключ контекста с ID аутентифицированного пользователя
	UserIDKey contextKey = "user_id"
	// UsernameKey — ключ контекста с именем пользователя
	UsernameKey contextKey = "username"
)

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с машинным кодом ошибки
func sendError(logger *slog.Logger, w http.ResponseWriter, code, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   code,
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}
