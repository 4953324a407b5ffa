// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"catalogd/internal/middleware"
	"catalogd/internal/models"
	"catalogd/internal/store"
	"catalogd/internal/token"
	"catalogd/internal/web"
)

// genericLoginMessage is returned for every login failure mode so clients
// cannot tell which check failed.
const genericLoginMessage = "Invalid email or password."

// dummyPasswordHash is compared against when the email lookup misses, so a
// login attempt costs one bcrypt comparison regardless of whether the
// account exists. Hash of an unusable throwaway value at the default cost.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// totpIssuer names this service in authenticator apps.
const totpIssuer = "catalogd"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	admins        *store.AdminStore
	tokens        *token.Manager
	denylist      *token.Denylist
	secureCookies bool
}

// NewAuth creates the auth handler group.
func NewAuth(admins *store.AdminStore, tokens *token.Manager, denylist *token.Denylist, secureCookies bool) *Auth {
	return &Auth{admins: admins, tokens: tokens, denylist: denylist, secureCookies: secureCookies}
}

// Login verifies credentials and issues a signed token plus auth cookie.
// POST /api/auth/login
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	admin, err := a.admins.FindByEmail(r.Context(), strings.TrimSpace(payload.Email))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	// The bcrypt comparison always runs, against a dummy hash when the
	// lookup missed, and all credential failures share one message and
	// one status.
	target := admin
	if target == nil {
		target = &models.Admin{PasswordHash: dummyPasswordHash}
	}
	passwordOK := a.admins.CheckPassword(target, payload.Password)
	if admin == nil || !admin.Active || !passwordOK {
		web.RespondError(w, r, web.Unauthorized(web.ReasonInvalidCredentials, genericLoginMessage))
		return
	}

	if admin.TOTPEnabled {
		if admin.TOTPSecret == nil || !totp.Validate(payload.Code, *admin.TOTPSecret) {
			web.RespondError(w, r, web.Unauthorized(web.ReasonInvalidCredentials, genericLoginMessage))
			return
		}
	}

	if err := a.admins.TouchLastLogin(r.Context(), admin.ID); err != nil {
		slog.Error("touch last login failed", "admin_id", admin.ID, "error", err)
	}

	signed, err := a.tokens.Issue(admin.ID)
	if err != nil {
		web.RespondError(w, r, web.Internal(err))
		return
	}
	a.tokens.SetCookie(w, signed, a.secureCookies)

	slog.Info("admin logged in", "admin_id", admin.ID, "username", admin.Username)
	web.RespondMessage(w, http.StatusOK, "Logged in.", map[string]any{
		"token":      signed,
		"expires_in": int(a.tokens.TTL().Seconds()),
		"admin":      admin.Summary(),
	})
}

// Register creates a new admin account. Route-guarded to super admins.
// POST /api/auth/register
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	// The route guard enforces this too; the handler refuses on its own
	// when mounted without it.
	if actor := middleware.AdminFromCtx(r.Context()); actor == nil || !actor.IsSuperAdmin() {
		web.RespondError(w, r, web.Forbidden())
		return
	}

	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	if errs := validateCredentials(payload.Username, payload.Email, payload.Password); len(errs) > 0 {
		web.RespondError(w, r, web.ValidationError(errs...))
		return
	}

	role := models.RoleAdmin
	if payload.Role != "" {
		role = models.Role(payload.Role)
		if !role.Valid() {
			web.RespondError(w, r, web.ValidationError(web.FieldError{
				Field: "role", Message: "Role must be admin or super_admin.",
			}))
			return
		}
	}

	username := strings.TrimSpace(payload.Username)
	email := strings.TrimSpace(payload.Email)
	taken, err := a.admins.UsernameOrEmailTaken(r.Context(), username, email)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if taken {
		web.RespondError(w, r, web.Conflict("Username or email is already in use."))
		return
	}

	admin, err := a.admins.Create(r.Context(), username, email, payload.Password, role)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	slog.Info("admin registered", "admin_id", admin.ID, "username", admin.Username, "role", admin.Role)
	web.RespondMessage(w, http.StatusCreated, "Admin created.", map[string]any{"admin": admin.Summary()})
}

// Logout revokes the presented token and clears the auth cookie.
// POST /api/auth/logout
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromCtx(r.Context())
	if claims != nil && claims.ExpiresAt != nil {
		if err := a.denylist.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("token revoke failed", "error", err)
		}
	}

	token.ClearCookie(w)
	web.RespondMessage(w, http.StatusOK, "Logged out.", nil)
}

// Profile returns the acting admin's account summary.
// GET /api/auth/profile
func (a *Auth) Profile(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromCtx(r.Context())
	web.Respond(w, http.StatusOK, map[string]any{"admin": admin.Summary()})
}

// UpdateProfile changes the acting admin's username and/or email.
// PUT /api/auth/profile
func (a *Auth) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromCtx(r.Context())

	var payload struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
	}
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	username := admin.Username
	if payload.Username != nil {
		username = strings.TrimSpace(*payload.Username)
	}
	email := admin.Email
	if payload.Email != nil {
		email = strings.TrimSpace(*payload.Email)
	}

	if errs := validateProfile(username, email); len(errs) > 0 {
		web.RespondError(w, r, web.ValidationError(errs...))
		return
	}

	if err := a.admins.UpdateProfile(r.Context(), admin.ID, username, email); err != nil {
		web.RespondError(w, r, err)
		return
	}

	admin.Username = username
	admin.Email = email
	web.RespondMessage(w, http.StatusOK, "Profile updated.", map[string]any{"admin": admin.Summary()})
}

// ChangePassword replaces the acting admin's password after verifying the
// current one.
// PUT /api/auth/change-password
func (a *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromCtx(r.Context())

	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	if !a.admins.CheckPassword(admin, payload.CurrentPassword) {
		web.RespondError(w, r, web.Unauthorized(web.ReasonInvalidCredentials, "Current password is incorrect."))
		return
	}
	if len(payload.NewPassword) < minPasswordLen {
		web.RespondError(w, r, web.ValidationError(web.FieldError{
			Field: "new_password", Message: "Password must be at least 8 characters.",
		}))
		return
	}

	if err := a.admins.UpdatePassword(r.Context(), admin.ID, payload.NewPassword); err != nil {
		web.RespondError(w, r, err)
		return
	}

	slog.Info("admin changed password", "admin_id", admin.ID)
	web.RespondMessage(w, http.StatusOK, "Password changed.", nil)
}

// TwoFASetup generates a TOTP secret for the acting admin and returns the
// enrollment URL plus a QR code image. The secret is stored but 2FA stays
// disabled until a code is verified.
// POST /api/auth/2fa/setup
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromCtx(r.Context())

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: admin.Email,
	})
	if err != nil {
		web.RespondError(w, r, web.Internal(err))
		return
	}

	if err := a.admins.SetTOTPSecret(r.Context(), admin.ID, key.Secret()); err != nil {
		web.RespondError(w, r, err)
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		web.RespondError(w, r, web.Internal(err))
		return
	}

	web.Respond(w, http.StatusOK, map[string]any{
		"secret":  key.Secret(),
		"url":     key.URL(),
		"qr_png":  base64.StdEncoding.EncodeToString(png),
		"enabled": false,
	})
}

// TwoFAVerify enables 2FA after the admin proves possession of the secret.
// POST /api/auth/2fa/verify
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromCtx(r.Context())

	var payload struct {
		Code string `json:"code"`
	}
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	if admin.TOTPSecret == nil {
		web.RespondError(w, r, web.ValidationMsg("2FA setup has not been started."))
		return
	}
	if !totp.Validate(payload.Code, *admin.TOTPSecret) {
		web.RespondError(w, r, web.ValidationError(web.FieldError{
			Field: "code", Message: "Invalid verification code.",
		}))
		return
	}

	if err := a.admins.EnableTOTP(r.Context(), admin.ID); err != nil {
		web.RespondError(w, r, err)
		return
	}

	slog.Info("admin enabled 2fa", "admin_id", admin.ID)
	web.RespondMessage(w, http.StatusOK, "Two-factor authentication enabled.", nil)
}
