package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/models"
)

type stubValidator struct {
	principal models.Principal
	err       error
}

func (s stubValidator) ValidateToken(context.Context, string) (models.Principal, error) {
	return s.principal, s.err
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	mw := RequireAuth(stubValidator{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a token")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/proposals", nil)
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	mw := RequireAuth(stubValidator{err: errors.New("expired")})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a bad token")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/proposals", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	want := models.Principal{ID: uuid.New(), Role: models.RoleFreelancer}
	mw := RequireAuth(stubValidator{principal: want})

	var seen models.Principal
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = PrincipalFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/proposals", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !ok || seen.ID != want.ID || seen.Role != want.Role {
		t.Errorf("principal in context: got %+v, want %+v", seen, want)
	}
}

func TestRequireAuth_CaseInsensitiveScheme(t *testing.T) {
	want := models.Principal{ID: uuid.New(), Role: models.RoleClient}
	mw := RequireAuth(stubValidator{principal: want})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	req.Header.Set("Authorization", "bearer good")
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
