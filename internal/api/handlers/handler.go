// handler.go — общие вспомогательные функции HTTP-обработчиков.
// Доменные обработчики лежат в соседних файлах пакета и делегируют
// запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/SonetShaji6/LifeSync/internal/api/errors"
	"github.com/SonetShaji6/LifeSync/internal/service"
)

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает тело запроса в dst. При ошибке пишет 400 и
// возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return false
	}
	return true
}

// writeServiceError транслирует ошибку сервисного слоя в HTTP-ответ.
// Неклассифицированные ошибки логируются и возвращаются как 500 без
// деталей.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrUpstream):
		apierrors.UpstreamFailure(w, err.Error())
	default:
		logger.Error("Необработанная ошибка сервиса", slog.String("error", err.Error()))
		apierrors.InternalError(w, "внутренняя ошибка сервера")
	}
}

// parseDate разбирает дату из запроса: сначала как YYYY-MM-DD,
// затем как RFC3339.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("некорректная дата %q (ожидается YYYY-MM-DD)", raw)
	}
	return t, nil
}

// formatDate форматирует дату для API-ответов.
func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// formatTime форматирует время для API-ответов.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// strOrEmpty разворачивает опциональное строковое поле.
func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
