package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// TokenValidator turns a bearer token into an authenticated principal.
type TokenValidator interface {
	ValidateToken(tokenString string) (requestcontext.AuthPrincipal, error)
}

// writeJSONError writes a JSON error response with the given status code and
// error details. Kept local so the middleware has no handler dependencies.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token and injects the principal into the
// request context. Absence of a valid token is a hard 401; role checks are a
// separate concern (RequireRole).
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			principal, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := requestcontext.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on the principal's capability set. Admins pass
// every gate. Runs after RequireAuth; an absent principal is a 401 so a
// misordered chain fails closed rather than open.
func RequireRole(role requestcontext.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := requestcontext.Principal(r.Context())
			if principal.IsZero() {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if !principal.Can(role) {
				logger.WarnContext(r.Context(), "forbidden - role mismatch",
					"required_role", string(role),
					"principal_role", string(principal.Role),
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient role for this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
