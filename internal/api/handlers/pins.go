// pins.go — обработчики PIN-кода медицинского раздела.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/SonetShaji6/LifeSync/internal/api/errors"
	"github.com/SonetShaji6/LifeSync/internal/api/middleware"
	"github.com/SonetShaji6/LifeSync/internal/service"
)

// PinHandler — обработчик /api/user/*-pin.
type PinHandler struct {
	pins   *service.PinService
	logger *slog.Logger
}

// NewPinHandler создаёт обработчик PIN-кодов.
func NewPinHandler(pins *service.PinService, logger *slog.Logger) *PinHandler {
	return &PinHandler{
		pins:   pins,
		logger: logger.With(slog.String("component", "pin_handler")),
	}
}

// PinStatus обрабатывает GET /api/user/pin-status.
func (h *PinHandler) PinStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	isSet, err := h.pins.IsSet(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isSet": isSet})
}

// SetPin обрабатывает POST /api/user/set-pin.
// Повторная установка запрещена: для смены используется change-pin.
func (h *PinHandler) SetPin(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	var req struct {
		Pin string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	isSet, err := h.pins.IsSet(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if isSet {
		apierrors.Conflict(w, "PIN уже установлен")
		return
	}

	if err := h.pins.Set(r.Context(), userID, req.Pin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "PIN установлен"})
}

// VerifyPin обрабатывает POST /api/user/verify-pin.
// Неверный PIN не является ошибкой: возвращается isValid=false.
func (h *PinHandler) VerifyPin(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	var req struct {
		Pin string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.pins.Verify(r.Context(), userID, req.Pin)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"isValid": true})
	case errors.Is(err, service.ErrUnauthorized):
		writeJSON(w, http.StatusOK, map[string]bool{"isValid": false})
	default:
		writeServiceError(w, h.logger, err)
	}
}

// ChangePin обрабатывает POST /api/user/change-pin.
// Требует текущий PIN.
func (h *PinHandler) ChangePin(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	var req struct {
		CurrentPin string `json:"currentPin"`
		NewPin     string `json:"newPin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.pins.Verify(r.Context(), userID, req.CurrentPin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if err := h.pins.Set(r.Context(), userID, req.NewPin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "PIN изменён"})
}
