// families.go — обработчики семейных групп.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/SonetShaji6/LifeSync/internal/api/errors"
	"github.com/SonetShaji6/LifeSync/internal/api/middleware"
	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/service"
)

// FamiliesHandler — обработчик /api/families.
type FamiliesHandler struct {
	families *service.FamilyService
	logger   *slog.Logger
}

// NewFamiliesHandler создаёт обработчик семей.
func NewFamiliesHandler(families *service.FamilyService, logger *slog.Logger) *FamiliesHandler {
	return &FamiliesHandler{
		families: families,
		logger:   logger.With(slog.String("component", "families_handler")),
	}
}

// familyResponse — семья в ответах API.
type familyResponse struct {
	ID        string           `json:"_id"`
	Name      string           `json:"name"`
	AdminID   string           `json:"adminId"`
	Members   []memberResponse `json:"members,omitempty"`
	IsAdmin   bool             `json:"isAdmin"`
	CreatedAt string           `json:"createdAt"`
}

// memberResponse — участник семьи в ответах API.
type memberResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newFamilyResponse(f *model.Family, members []*model.FamilyMember, isAdmin bool) familyResponse {
	resp := familyResponse{
		ID:        f.ID,
		Name:      f.Name,
		AdminID:   f.AdminID,
		IsAdmin:   isAdmin,
		CreatedAt: formatTime(f.CreatedAt),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, memberResponse{ID: m.ID, Name: m.Name, Email: m.Email})
	}
	return resp
}

// List обрабатывает GET /api/families — семьи текущего пользователя.
// Пользователь состоит не более чем в одной семье, поэтому список
// содержит ноль или один элемент.
func (h *FamiliesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	details, err := h.families.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusOK, []familyResponse{})
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, []familyResponse{
		newFamilyResponse(details.Family, details.Members, details.IsAdmin),
	})
}

// Create обрабатывает POST /api/families.
func (h *FamiliesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	family, err := h.families.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newFamilyResponse(family, nil, true))
}

// Search обрабатывает GET /api/families/search?q=.
func (h *FamiliesHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	families, err := h.families.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]familyResponse, 0, len(families))
	for _, f := range families {
		resp = append(resp, newFamilyResponse(f, nil, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Join обрабатывает POST /api/families/{familyId}/join.
// Повторная подача при необработанной заявке идемпотентна.
func (h *FamiliesHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())
	familyID := chi.URLParam(r, "familyId")

	_, created, err := h.families.RequestJoin(r.Context(), userID, familyID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if created {
		writeJSON(w, http.StatusCreated, map[string]string{"message": "заявка отправлена"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "заявка уже подана и ожидает рассмотрения"})
}

// Members обрабатывает GET /api/families/{familyId}/members.
// Состав виден только членам семьи.
func (h *FamiliesHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())
	familyID := chi.URLParam(r, "familyId")

	details, err := h.families.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if details.Family.ID != familyID {
		apierrors.Forbidden(w, "пользователь не состоит в этой семье")
		return
	}

	resp := make([]memberResponse, 0, len(details.Members))
	for _, m := range details.Members {
		resp = append(resp, memberResponse{ID: m.ID, Name: m.Name, Email: m.Email})
	}
	writeJSON(w, http.StatusOK, resp)
}

// joinRequestResponse — заявка на вступление в ответах API.
type joinRequestResponse struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// JoinRequests обрабатывает GET /api/families/{familyId}/joinRequests.
func (h *FamiliesHandler) JoinRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())
	familyID := chi.URLParam(r, "familyId")

	requests, err := h.families.ListJoinRequests(r.Context(), userID, familyID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]joinRequestResponse, 0, len(requests))
	for _, req := range requests {
		resp = append(resp, joinRequestResponse{
			UserID:    req.UserID,
			Name:      req.UserName,
			Email:     req.UserEmail,
			CreatedAt: formatTime(req.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Approve обрабатывает PATCH /api/families/{familyId}/approve/{userId}.
func (h *FamiliesHandler) Approve(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.UserIDFrom(r.Context())
	familyID := chi.URLParam(r, "familyId")
	applicantID := chi.URLParam(r, "userId")

	if err := h.families.ApproveJoinRequest(r.Context(), adminID, familyID, applicantID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "заявка одобрена"})
}

// RejectRequest обрабатывает DELETE /api/families/{familyId}/joinRequests/{userId}.
func (h *FamiliesHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.UserIDFrom(r.Context())
	familyID := chi.URLParam(r, "familyId")
	applicantID := chi.URLParam(r, "userId")

	if err := h.families.RejectJoinRequest(r.Context(), adminID, familyID, applicantID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "заявка отклонена"})
}

// RemoveMember обрабатывает DELETE /api/families/{familyId}/members/{userId}.
// Участник может выйти сам; остальных исключает администратор.
func (h *FamiliesHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.UserIDFrom(r.Context())
	familyID := chi.URLParam(r, "familyId")
	memberID := chi.URLParam(r, "userId")

	var err error
	if actorID == memberID {
		err = h.families.Leave(r.Context(), actorID)
	} else {
		err = h.families.RemoveMember(r.Context(), actorID, familyID, memberID)
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "участник исключён из семьи"})
}
