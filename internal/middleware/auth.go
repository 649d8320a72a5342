package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pivotapp/pivot/internal/ctxkeys"
	"github.com/pivotapp/pivot/internal/httperr"
	"github.com/pivotapp/pivot/internal/service"
)

// Auth validates the bearer token and adds the user to the request context.
// Requests without a token, with a malformed or expired token, or whose
// token references a deleted user continue unauthenticated; RequireAuth
// decides whether that is fatal.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authService.ValidateSession(token)
			if err != nil {
				slog.Debug("session validation failed", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			// Credential fields never travel past this point
			user.PasswordHash = nil
			user.GoogleID = nil

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with a 401 envelope.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			httperr.Write(w, r, httperr.Unauthorized("Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
