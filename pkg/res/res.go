package res

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse представляет формат JSON-ответа для ошибок.
type ErrorResponse struct {
	Error   string `json:"error"`             // Сообщение об ошибке (для пользователя)
	Code    string `json:"code,omitempty"`    // Машиночитаемый код ошибки
	Details any    `json:"details,omitempty"` // Детали ошибки (например, сообщение внешнего сервиса)
}

// JsonResponse отправляет JSON-ответ с заданным статусом.
func JsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// JsonErrorResponse отправляет JSON ответ ошибки и логирует его.
func JsonErrorResponse(w http.ResponseWriter, errResponse ErrorResponse, status int, log *zap.SugaredLogger) {
	JsonResponse(w, errResponse, status)
	log.Errorw("Request failed", "status", status, "code", errResponse.Code, "error", errResponse.Error)
}
