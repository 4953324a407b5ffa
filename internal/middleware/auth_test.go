// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"catalogd/internal/models"
	"catalogd/internal/token"
)

// stubFinder serves a fixed set of admins by ID.
type stubFinder struct {
	admins map[uuid.UUID]*models.Admin
}

func (f *stubFinder) FindByID(_ context.Context, id uuid.UUID) (*models.Admin, error) {
	return f.admins[id], nil
}

// stubRevocations marks a fixed set of jtis as revoked.
type stubRevocations struct {
	revoked map[string]bool
}

func (r *stubRevocations) Revoked(_ context.Context, jti string) (bool, error) {
	return r.revoked[jti], nil
}

func testGate(t *testing.T, admins ...*models.Admin) (*AuthGate, *token.Manager, *stubRevocations) {
	t.Helper()

	finder := &stubFinder{admins: make(map[uuid.UUID]*models.Admin)}
	for _, a := range admins {
		finder.admins[a.ID] = a
	}

	revocations := &stubRevocations{revoked: make(map[string]bool)}
	tokens := token.NewManager("test-secret", time.Hour)
	return NewAuthGate(tokens, finder, revocations), tokens, revocations
}

func activeAdmin(role models.Role) *models.Admin {
	return &models.Admin{
		ID:       uuid.New(),
		Username: "tester",
		Email:    "tester@example.com",
		Role:     role,
		Active:   true,
	}
}

// echoAdmin records whether the handler ran and which admin was attached.
func echoAdmin(called *bool, got **models.Admin) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*got = AdminFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthMissingToken(t *testing.T) {
	gate, _, _ := testGate(t)

	var called bool
	var got *models.Admin
	w := httptest.NewRecorder()
	gate.RequireAuth(echoAdmin(&called, &got)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if called {
		t.Error("handler must not run without a token")
	}
	if !strings.Contains(w.Body.String(), "missing_token") {
		t.Errorf("expected missing_token code, body: %s", w.Body.String())
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	gate, _, _ := testGate(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")

	var called bool
	var got *models.Admin
	w := httptest.NewRecorder()
	gate.RequireAuth(echoAdmin(&called, &got)).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_token") {
		t.Errorf("expected invalid_token code, body: %s", w.Body.String())
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	admin := activeAdmin(models.RoleAdmin)
	gate, _, _ := testGate(t, admin)

	expired := token.NewManager("test-secret", -time.Minute)
	signed, err := expired.Issue(admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	var called bool
	var got *models.Admin
	w := httptest.NewRecorder()
	gate.RequireAuth(echoAdmin(&called, &got)).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "expired_token") {
		t.Errorf("expected expired_token code, body: %s", w.Body.String())
	}
}

func TestRequireAuthRevokedToken(t *testing.T) {
	admin := activeAdmin(models.RoleAdmin)
	gate, tokens, revocations := testGate(t, admin)

	signed, err := tokens.Issue(admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	revocations.revoked[claims.ID] = true

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	var called bool
	var got *models.Admin
	w := httptest.NewRecorder()
	gate.RequireAuth(echoAdmin(&called, &got)).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if called {
		t.Error("handler must not run with a revoked token")
	}
}

func TestRequireAuthInactiveAdmin(t *testing.T) {
	admin := activeAdmin(models.RoleAdmin)
	admin.Active = false
	gate, tokens, _ := testGate(t, admin)

	signed, err := tokens.Issue(admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	var called bool
	var got *models.Admin
	w := httptest.NewRecorder()
	gate.RequireAuth(echoAdmin(&called, &got)).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
}

func TestRequireAuthSuccess(t *testing.T) {
	admin := activeAdmin(models.RoleAdmin)
	gate, tokens, _ := testGate(t, admin)

	signed, err := tokens.Issue(admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	var called bool
	var got *models.Admin
	w := httptest.NewRecorder()
	gate.RequireAuth(echoAdmin(&called, &got)).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if !called {
		t.Fatal("handler did not run")
	}
	if got == nil || got.ID != admin.ID {
		t.Error("expected admin attached to context")
	}
}

func TestRequireAuthAttachesClaims(t *testing.T) {
	admin := activeAdmin(models.RoleAdmin)
	gate, tokens, _ := testGate(t, admin)

	signed, err := tokens.Issue(admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	var claims *token.Claims
	handler := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims = ClaimsFromCtx(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), r)

	if claims == nil {
		t.Fatal("expected claims in context")
	}
	if claims.ID == "" {
		t.Error("expected non-empty jti")
	}
}

func TestOptionalAuthWithoutToken(t *testing.T) {
	gate, _, _ := testGate(t)

	var called bool
	var got *models.Admin
	w := httptest.NewRecorder()
	gate.OptionalAuth(echoAdmin(&called, &got)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if !called {
		t.Fatal("handler did not run")
	}
	if got != nil {
		t.Error("expected no admin attached")
	}
}

func TestOptionalAuthWithToken(t *testing.T) {
	admin := activeAdmin(models.RoleAdmin)
	gate, tokens, _ := testGate(t, admin)

	signed, err := tokens.Issue(admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	var called bool
	var got *models.Admin
	gate.OptionalAuth(echoAdmin(&called, &got)).ServeHTTP(httptest.NewRecorder(), r)

	if got == nil || got.ID != admin.ID {
		t.Error("expected admin attached for a valid token")
	}
}

func TestRequireRole(t *testing.T) {
	superAdmin := activeAdmin(models.RoleSuperAdmin)
	plainAdmin := activeAdmin(models.RoleAdmin)
	gate, tokens, _ := testGate(t, superAdmin, plainAdmin)

	guard := RequireRole(models.RoleSuperAdmin)

	run := func(admin *models.Admin) int {
		signed, err := tokens.Issue(admin.ID)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+signed)

		w := httptest.NewRecorder()
		gate.RequireAuth(guard(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))).ServeHTTP(w, r)
		return w.Code
	}

	if code := run(superAdmin); code != http.StatusOK {
		t.Errorf("super admin: got %d, want 200", code)
	}
	if code := run(plainAdmin); code != http.StatusForbidden {
		t.Errorf("plain admin: got %d, want 403", code)
	}
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	guard := RequireRole(models.RoleSuperAdmin)

	w := httptest.NewRecorder()
	guard(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", w.Code)
	}
}
