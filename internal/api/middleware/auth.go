// auth.go — JWT middleware аутентификации.
// Извлекает Bearer-токен из заголовка Authorization, проверяет подпись
// и помещает ID пользователя в контекст запроса.
package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/SonetShaji6/LifeSync/internal/api/errors"
	"github.com/SonetShaji6/LifeSync/internal/auth"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyUserID — ID аутентифицированного пользователя в контексте запроса.
const ContextKeyUserID contextKey = "user_id"

// UserIDFrom извлекает ID пользователя из контекста запроса.
// Возвращает пустую строку, если запрос не аутентифицирован.
func UserIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(ContextKeyUserID).(string)
	return userID
}

// JWTAuth возвращает middleware, требующий валидный Bearer-токен
// для всех путей, кроме перечисленных в excludedPrefixes.
func JWTAuth(manager *auth.Manager, excludedPrefixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range excludedPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				apierrors.Unauthorized(w, "отсутствует заголовок Authorization")
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				apierrors.Unauthorized(w, "ожидается схема Bearer")
				return
			}

			userID, err := manager.Verify(tokenString)
			if err != nil {
				apierrors.Unauthorized(w, "недействительный или истёкший токен")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
