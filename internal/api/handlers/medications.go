// medications.go — обработчики медикаментов.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/SonetShaji6/LifeSync/internal/api/errors"
	"github.com/SonetShaji6/LifeSync/internal/api/middleware"
	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/service"
)

// MedicationsHandler — обработчик /api/medications.
type MedicationsHandler struct {
	medications *service.MedicationService
	logger      *slog.Logger
}

// NewMedicationsHandler создаёт обработчик медикаментов.
func NewMedicationsHandler(medications *service.MedicationService, logger *slog.Logger) *MedicationsHandler {
	return &MedicationsHandler{
		medications: medications,
		logger:      logger.With(slog.String("component", "medications_handler")),
	}
}

// medicationRequest — тело создания и обновления медикамента.
type medicationRequest struct {
	Name          string   `json:"name"`
	Dosage        string   `json:"dosage"`
	Frequency     string   `json:"frequency"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	Doctor        string   `json:"doctor"`
	Notes         string   `json:"notes"`
	Reminder      bool     `json:"reminder"`
	ReminderTimes []string `json:"reminderTimes"`
	IsShared      bool     `json:"isShared"`
}

// toInput преобразует тело запроса в сервисный ввод.
// При ошибке ответ уже записан.
func (req *medicationRequest) toInput(w http.ResponseWriter) (*service.MedicationInput, bool) {
	in := &service.MedicationInput{
		Name:          req.Name,
		Dosage:        req.Dosage,
		Frequency:     req.Frequency,
		Reminder:      req.Reminder,
		ReminderTimes: req.ReminderTimes,
		IsShared:      req.IsShared,
	}
	if req.Doctor != "" {
		in.Doctor = &req.Doctor
	}
	if req.Notes != "" {
		in.Notes = &req.Notes
	}
	if req.StartDate != "" {
		t, err := parseDate(req.StartDate)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return nil, false
		}
		in.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := parseDate(req.EndDate)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return nil, false
		}
		in.EndDate = &t
	}
	return in, true
}

// medicationResponse — медикамент в ответах API.
type medicationResponse struct {
	ID            string   `json:"_id"`
	UserID        string   `json:"userId"`
	Name          string   `json:"name"`
	Dosage        string   `json:"dosage,omitempty"`
	Frequency     string   `json:"frequency,omitempty"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	Doctor        string   `json:"doctor,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Reminder      bool     `json:"reminder"`
	ReminderTimes []string `json:"reminderTimes"`
	IsShared      bool     `json:"isShared"`
	CreatedAt     string   `json:"createdAt"`
}

func newMedicationResponse(m *model.Medication) medicationResponse {
	resp := medicationResponse{
		ID:            m.ID,
		UserID:        m.UserID,
		Name:          m.Name,
		Dosage:        m.Dosage,
		Frequency:     m.Frequency,
		Doctor:        strOrEmpty(m.Doctor),
		Notes:         strOrEmpty(m.Notes),
		Reminder:      m.Reminder,
		ReminderTimes: m.ReminderTimes,
		IsShared:      m.IsShared,
		CreatedAt:     formatTime(m.CreatedAt),
	}
	if resp.ReminderTimes == nil {
		resp.ReminderTimes = []string{}
	}
	if m.StartDate != nil {
		resp.StartDate = formatDate(*m.StartDate)
	}
	if m.EndDate != nil {
		resp.EndDate = formatDate(*m.EndDate)
	}
	return resp
}

// Create обрабатывает POST /api/medications.
func (h *MedicationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	var req medicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := req.toInput(w)
	if !ok {
		return
	}

	m, err := h.medications.Create(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMedicationResponse(m))
}

// List обрабатывает GET /api/medications.
// Без familyId возвращаются медикаменты пользователя; с familyId —
// расшаренные медикаменты остальных членов его семьи.
func (h *MedicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	var (
		medications []*model.Medication
		err         error
	)
	if r.URL.Query().Get("familyId") != "" {
		medications, err = h.medications.ListFamilyShared(r.Context(), userID)
	} else {
		medications, err = h.medications.List(r.Context(), userID)
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]medicationResponse, 0, len(medications))
	for _, m := range medications {
		resp = append(resp, newMedicationResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get обрабатывает GET /api/medications/{medicationId}.
func (h *MedicationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	m, err := h.medications.Get(r.Context(), userID, chi.URLParam(r, "medicationId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newMedicationResponse(m))
}

// Update обрабатывает PUT /api/medications/{medicationId}.
func (h *MedicationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	var req medicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := req.toInput(w)
	if !ok {
		return
	}

	m, err := h.medications.Update(r.Context(), userID, chi.URLParam(r, "medicationId"), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newMedicationResponse(m))
}

// Delete обрабатывает DELETE /api/medications/{medicationId}.
func (h *MedicationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	if err := h.medications.Delete(r.Context(), userID, chi.URLParam(r, "medicationId")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "медикамент удалён"})
}

// Share обрабатывает PATCH /api/medications/{medicationId}/share.
// Инвертирует флаг расшаривания, тело запроса не требуется.
func (h *MedicationsHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	m, err := h.medications.ToggleShared(r.Context(), userID, chi.URLParam(r, "medicationId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newMedicationResponse(m))
}
