package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/worklane/backend/internal/models"
)

type contextKey string

const ctxPrincipalKey contextKey = "principal"

// TokenValidator resolves a bearer token into the authenticated
// principal. Implemented by auth.Service.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (models.Principal, error)
}

// RequireAuth authenticates requests by validating the Bearer token and
// placing the resulting principal into request context. Core operations
// then receive the principal explicitly, never from ambient state.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			principal, err := validator.ValidateToken(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// PrincipalFromCtx returns the authenticated principal and whether one
// is present.
func PrincipalFromCtx(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(ctxPrincipalKey).(models.Principal)
	return p, ok
}

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
