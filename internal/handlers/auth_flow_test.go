// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// auth_flow_test.go exercises the authentication endpoints end to end:
// login, logout with token revocation, profile access, and the super-admin
// guard on registration. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalogd/internal/models"
)

func TestLoginFailuresShareOneMessage(t *testing.T) {
	env := newTestEnv(t)
	env.makeAdmin(t, "authflow-generic", "authflow-generic@handler-test.local", "correct-password", models.RoleAdmin)

	// Unknown email.
	status, unknownEmail := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@handler-test.local",
		"password": "whatever",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("unknown email: got %d, want 401", status)
	}

	// Wrong password for a real account.
	status, wrongPassword := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "authflow-generic@handler-test.local",
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong password: got %d, want 401", status)
	}

	// The two failure modes must be indistinguishable.
	if unknownEmail.Message != wrongPassword.Message {
		t.Errorf("messages differ: %q vs %q", unknownEmail.Message, wrongPassword.Message)
	}
	if unknownEmail.Code != wrongPassword.Code {
		t.Errorf("codes differ: %q vs %q", unknownEmail.Code, wrongPassword.Code)
	}
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	env := newTestEnv(t)
	admin := env.makeAdmin(t, "authflow-inactive", "authflow-inactive@handler-test.local", "pass12345", models.RoleAdmin)

	if _, err := env.DB.Exec("UPDATE admins SET active = FALSE WHERE id = $1", admin.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	status, inactive := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "authflow-inactive@handler-test.local",
		"password": "pass12345",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", status)
	}

	// Same generic message as a plain bad password.
	status, badPassword := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "authflow-inactive@handler-test.local",
		"password": "not-the-password",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad password: got %d, want 401", status)
	}
	if inactive.Message != badPassword.Message {
		t.Errorf("messages differ: %q vs %q", inactive.Message, badPassword.Message)
	}
}

func TestLoginAndProfile(t *testing.T) {
	env := newTestEnv(t)
	admin := env.makeAdmin(t, "authflow-login", "authflow-login@handler-test.local", "pass12345", models.RoleAdmin)

	tok := env.login(t, "authflow-login@handler-test.local", "pass12345")

	status, resp := env.request(t, http.MethodGet, "/api/auth/profile", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("profile: got %d", status)
	}

	profile, _ := resp.Data["admin"].(map[string]any)
	if profile == nil {
		t.Fatal("no admin in profile response")
	}
	if profile["id"] != admin.ID.String() {
		t.Errorf("id: got %v, want %s", profile["id"], admin.ID)
	}
	if _, leaked := profile["password_hash"]; leaked {
		t.Error("password hash leaked in profile")
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	env.makeAdmin(t, "authflow-logout", "authflow-logout@handler-test.local", "pass12345", models.RoleAdmin)

	tok := env.login(t, "authflow-logout@handler-test.local", "pass12345")

	// Token works before logout.
	if status, _ := env.request(t, http.MethodGet, "/api/auth/profile", tok, nil); status != http.StatusOK {
		t.Fatalf("pre-logout profile: got %d", status)
	}

	if status, _ := env.request(t, http.MethodPost, "/api/auth/logout", tok, nil); status != http.StatusOK {
		t.Fatalf("logout: got %d", status)
	}

	// Same token is dead afterwards even though it has not expired.
	if status, _ := env.request(t, http.MethodGet, "/api/auth/profile", tok, nil); status != http.StatusUnauthorized {
		t.Errorf("post-logout profile: got %d, want 401", status)
	}
}

func TestRegisterRequiresSuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.makeAdmin(t, "authflow-plain", "authflow-plain@handler-test.local", "pass12345", models.RoleAdmin)
	env.makeAdmin(t, "authflow-super", "authflow-super@handler-test.local", "pass12345", models.RoleSuperAdmin)

	newAccount := map[string]string{
		"username": "authflow-new",
		"email":    "authflow-new@handler-test.local",
		"password": "pass12345",
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM admins WHERE email = $1", "authflow-new@handler-test.local")
	})

	// Unauthenticated.
	if status, _ := env.request(t, http.MethodPost, "/api/auth/register", "", newAccount); status != http.StatusUnauthorized {
		t.Errorf("unauthenticated: got %d, want 401", status)
	}

	// Plain admin.
	plainTok := env.login(t, "authflow-plain@handler-test.local", "pass12345")
	if status, _ := env.request(t, http.MethodPost, "/api/auth/register", plainTok, newAccount); status != http.StatusForbidden {
		t.Errorf("plain admin: got %d, want 403", status)
	}

	// Super admin.
	superTok := env.login(t, "authflow-super@handler-test.local", "pass12345")
	status, resp := env.request(t, http.MethodPost, "/api/auth/register", superTok, newAccount)
	if status != http.StatusCreated {
		t.Fatalf("super admin: got %d (%s), want 201", status, resp.Message)
	}

	// Duplicate registration conflicts.
	if status, _ := env.request(t, http.MethodPost, "/api/auth/register", superTok, newAccount); status != http.StatusConflict {
		t.Errorf("duplicate: got %d, want 409", status)
	}
}

// The register handler carries its own role check, so it refuses plain
// admins even when mounted without the route-level guard.
func TestRegisterHandlerChecksRoleItself(t *testing.T) {
	env := newTestEnv(t)
	env.makeAdmin(t, "authflow-bare", "authflow-bare@handler-test.local", "pass12345", models.RoleAdmin)
	tok := env.login(t, "authflow-bare@handler-test.local", "pass12345")

	// Auth gate only, no RequireRole in front.
	h := env.Gate.RequireAuth(http.HandlerFunc(env.Auth.Register))

	body := `{"username":"authflow-sneak","email":"authflow-sneak@handler-test.local","password":"pass12345"}`
	r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", w.Code)
	}

	admin, err := env.Admins.FindByEmail(r.Context(), "authflow-sneak@handler-test.local")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if admin != nil {
		env.DB.Exec("DELETE FROM admins WHERE email = $1", "authflow-sneak@handler-test.local")
		t.Error("account must not be created")
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	env := newTestEnv(t)
	env.makeAdmin(t, "authflow-chpw", "authflow-chpw@handler-test.local", "old-password", models.RoleAdmin)

	tok := env.login(t, "authflow-chpw@handler-test.local", "old-password")

	status, _ := env.request(t, http.MethodPut, "/api/auth/change-password", tok, map[string]string{
		"current_password": "not-the-password",
		"new_password":     "brand-new-pass",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong current password: got %d, want 401", status)
	}

	status, _ = env.request(t, http.MethodPut, "/api/auth/change-password", tok, map[string]string{
		"current_password": "old-password",
		"new_password":     "brand-new-pass",
	})
	if status != http.StatusOK {
		t.Fatalf("change password: got %d", status)
	}

	// The new password logs in.
	env.login(t, "authflow-chpw@handler-test.local", "brand-new-pass")
}
