package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SonetShaji6/LifeSync/internal/auth"
)

// newTestHandler возвращает handler, записывающий user_id из контекста.
func newTestHandler(gotUserID *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUserID = UserIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTAuth_ValidToken(t *testing.T) {
	manager := auth.NewManager("test-secret-0123456789", time.Hour)
	token, err := manager.Generate("user-1")
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}

	var gotUserID string
	handler := JWTAuth(manager, nil)(newTestHandler(&gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}
	if gotUserID != "user-1" {
		t.Errorf("user_id в контексте: ожидалось user-1, получено %q", gotUserID)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	manager := auth.NewManager("test-secret-0123456789", time.Hour)

	var gotUserID string
	handler := JWTAuth(manager, nil)(newTestHandler(&gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

func TestJWTAuth_WrongScheme(t *testing.T) {
	manager := auth.NewManager("test-secret-0123456789", time.Hour)

	var gotUserID string
	handler := JWTAuth(manager, nil)(newTestHandler(&gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	manager := auth.NewManager("test-secret-0123456789", time.Hour)
	other := auth.NewManager("other-secret-012345678", time.Hour)
	token, err := other.Generate("user-1")
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}

	var gotUserID string
	handler := JWTAuth(manager, nil)(newTestHandler(&gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

func TestJWTAuth_ExcludedPath(t *testing.T) {
	manager := auth.NewManager("test-secret-0123456789", time.Hour)

	var gotUserID string
	exclusions := []string{"/health/", "/metrics", "/api/auth/"}
	handler := JWTAuth(manager, exclusions)(newTestHandler(&gotUserID))

	for _, path := range []string{"/health/live", "/metrics", "/api/auth/login"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: исключённый путь должен пропускаться без токена, статус %d", path, rec.Code)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/families/3b9a4e2c-1f6d-4a8b-9c3e-7d2f5a8b1c4d/members", "/api/families/{id}/members"},
		{"/api/medications/3b9a4e2c-1f6d-4a8b-9c3e-7d2f5a8b1c4d", "/api/medications/{id}"},
		{"/api/files", "/api/files"},
		{"/health/live", "/health/live"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}
