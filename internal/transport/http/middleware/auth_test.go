package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/auth"
)

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", PersonID: "p1", RoleName: auth.RoleSupervisor}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != "u1" || user.PersonID != "p1" || user.RoleName != auth.RoleSupervisor {
			t.Fatalf("unexpected user: %+v", user)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestRequirePermissionByRole(t *testing.T) {
	protected := RequirePermission(auth.PermSettingsWrite)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	secret := "test-secret"
	cases := []struct {
		role string
		want int
	}{
		{auth.RoleAdmin, http.StatusNoContent},
		{auth.RoleSupervisor, http.StatusForbidden},
		{auth.RoleWorker, http.StatusForbidden},
	}

	for _, tc := range cases {
		token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", RoleName: tc.role}, time.Hour)
		if err != nil {
			t.Fatalf("token error: %v", err)
		}
		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		Auth(secret)(protected).ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("role %s: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
	}
}

func TestRequirePermissionUnauthenticated(t *testing.T) {
	protected := RequirePermission(auth.PermTimeclockUse)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timeclock/clock-in", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
