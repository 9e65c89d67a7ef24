package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tutoring-service/internal/httputil"
	"tutoring-service/internal/user"
)

// UserLookup is the part of the user store the role gate reads.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// RequireRole admits the request only when the caller's stored role equals role. The
// user record is read on every request, never cached. Must run after Authenticate.
func RequireRole(users UserLookup, role user.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			email, ok := GetEmail(ctx)
			if !ok {
				httputil.RespondWithError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			u, err := users.GetByEmail(ctx, email)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					logger.WarnContext(ctx, "token subject has no user record", "email", email, "required_role", role)
					httputil.RespondWithError(w, http.StatusForbidden, msgForbidden)
					return
				}
				logger.ErrorContext(ctx, "failed to load user for role check", "email", email, "error", err)
				httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if u.Role != role {
				logger.WarnContext(ctx, "role mismatch", "email", email, "role", u.Role, "required_role", role)
				httputil.RespondWithError(w, http.StatusForbidden, msgForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, u)))
		})
	}
}

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

// UserFromContext returns the user admitted by RequireRole.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserKey).(*user.User)
	return u, ok && u != nil
}
