package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tutoring-service/internal/httputil"
)

type contextKey string

const (
	// EmailKey is the context key for the verified email claim
	EmailKey contextKey = "email"
	// UserKey is the context key for the user record loaded by the role gate
	UserKey contextKey = "user"
)

const (
	msgUnauthorized = "unauthorized access"
	msgForbidden    = "forbidden access"
)

// Authenticate verifies the bearer token and stores its email claim in the request context.
func Authenticate(tokens *TokenManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				logger.WarnContext(r.Context(), "missing bearer token", "path", r.URL.Path)
				httputil.RespondWithError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				logger.WarnContext(r.Context(), "invalid token", "path", r.URL.Path, "error", err)
				httputil.RespondWithError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), claims.Email)))
		})
	}
}

func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, EmailKey, email)
}

// GetEmail extracts the verified email from context
func GetEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok && email != ""
}
