// auth.go — обработчики регистрации и входа.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/service"
)

// AuthHandler — обработчик /api/auth/*.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler создаёт обработчик аутентификации.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With(slog.String("component", "auth_handler")),
	}
}

// authResponse — пользователь с токеном. Ключ _id сохранён ради
// совместимости клиентов.
type authResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func newAuthResponse(u *model.User, token string) authResponse {
	return authResponse{ID: u.ID, Name: u.Name, Email: u.Email, Token: token}
}

// Signup обрабатывает POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(user, token))
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(user, token))
}

// Logout обрабатывает POST /api/auth/logout.
// Токены stateless: сервер ничего не инвалидирует, клиент удаляет
// токен у себя.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "выход выполнен"})
}
