package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/coopfinance/internal/platform/httpx"
)

// Middleware authenticates bearer tokens.
type Middleware struct {
	secret []byte
	logger *slog.Logger
}

// NewMiddleware constructs the middleware.
func NewMiddleware(secret []byte, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{secret: secret, logger: logger}
}

// Authenticate rejects requests without a valid token and stores the
// identity in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ParseJWT(bearerToken(r), m.secret)
		if err != nil {
			m.logger.Debug("auth rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "valid bearer token required")
			return
		}
		role, _ := NormalizeRole(claims.Role)
		ctx := WithIdentity(r.Context(), claims.TenantID, role, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose role does not satisfy required.
func RequireRole(required Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RoleFromContext(r.Context()).Allows(required) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "role "+string(required)+" required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
