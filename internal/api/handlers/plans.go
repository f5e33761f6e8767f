// plans.go — обработчики генерации планов.
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

// PlansHandler — обработчик /api/generate-plan и /api/plans.
type PlansHandler struct {
	plans  *service.PlanService
	logger *slog.Logger
}

// NewPlansHandler создаёт обработчик планов.
func NewPlansHandler(plans *service.PlanService, logger *slog.Logger) *PlansHandler {
	return &PlansHandler{
		plans:  plans,
		logger: logger.With(slog.String("component", "plans_handler")),
	}
}

// planResponse — план в ответах API.
type planResponse struct {
	ID            string `json:"_id"`
	UserID        string `json:"userId"`
	PlanType      string `json:"planType"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Description   string `json:"description"`
	GeneratedPlan string `json:"generatedPlan"`
	CreatedAt     string `json:"createdAt"`
}

func newPlanResponse(p *model.Plan) planResponse {
	return planResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		PlanType:      p.PlanType,
		StartDate:     formatDate(p.StartDate),
		EndDate:       formatDate(p.EndDate),
		Description:   p.Description,
		GeneratedPlan: p.GeneratedPlan,
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

// Generate обрабатывает POST /api/generate-plan.
func (h *PlansHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	var req struct {
		PlanType    string `json:"planType"`
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	in := &service.PlanInput{
		PlanType:    req.PlanType,
		Description: req.Description,
	}
	if req.StartDate != "" {
		t, err := parseDate(req.StartDate)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		in.StartDate = t
	}
	if req.EndDate != "" {
		t, err := parseDate(req.EndDate)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		in.EndDate = t
	}

	plan, err := h.plans.Generate(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPlanResponse(plan))
}

// List обрабатывает GET /api/plans — планы пользователя, новые первыми.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	plans, err := h.plans.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, newPlanResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get обрабатывает GET /api/plans/{planId}.
func (h *PlansHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	plan, err := h.plans.Get(r.Context(), userID, chi.URLParam(r, "planId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(plan))
}

// Delete обрабатывает DELETE /api/plans/{planId}.
func (h *PlansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	if err := h.plans.Delete(r.Context(), userID, chi.URLParam(r, "planId")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "план удалён"})
}
