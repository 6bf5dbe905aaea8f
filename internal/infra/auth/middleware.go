package auth

import (
	"context"
	"net/http"

	"github.com/xela07ax/sentinel-console/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator — интерфейс, который реализуют и портал, и tokend
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

// Типизированные ключи контекста (избегаем коллизий)
type ctxKey string

const (
	ctxKeyUserID ctxKey = "user_id"
	ctxKeyEmail  ctxKey = "user_email"
)

func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Прокидываем идентичность вызывающего в контекст
			ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxKeyEmail, claims.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext достает идентичность, проставленную Middleware.
func CallerFromContext(ctx context.Context) (uid, email string, ok bool) {
	uid, okID := ctx.Value(ctxKeyUserID).(string)
	email, okEmail := ctx.Value(ctxKeyEmail).(string)
	return uid, email, okID && okEmail
}
