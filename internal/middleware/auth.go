// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"catalogd/internal/models"
	"catalogd/internal/token"
	"catalogd/internal/web"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// AdminKey is the context key for the authenticated admin.
	AdminKey contextKey = "admin"
	// ClaimsKey is the context key for the verified token claims.
	ClaimsKey contextKey = "claims"
)

// AdminFinder loads admin accounts for the auth gate. Implemented by
// store.AdminStore; an interface so middleware tests can stub it.
type AdminFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
}

// Revocations checks whether a token ID has been revoked. Implemented by
// token.Denylist.
type Revocations interface {
	Revoked(ctx context.Context, jti string) (bool, error)
}

// AuthGate verifies bearer tokens and attaches the acting admin to the
// request context.
type AuthGate struct {
	tokens   *token.Manager
	admins   AdminFinder
	denylist Revocations
}

// NewAuthGate creates the auth gate with its dependencies.
func NewAuthGate(tokens *token.Manager, admins AdminFinder, denylist Revocations) *AuthGate {
	return &AuthGate{tokens: tokens, admins: admins, denylist: denylist}
}

// authenticate runs the full verification chain and returns the admin and
// verified claims, or a typed 401 error describing which step failed.
func (g *AuthGate) authenticate(r *http.Request) (*models.Admin, *token.Claims, error) {
	raw := token.FromRequest(r)
	if raw == "" {
		return nil, nil, web.Unauthorized(web.ReasonMissingToken, "Authentication required.")
	}

	claims, err := g.tokens.Parse(raw)
	if err != nil {
		if err == token.ErrExpired {
			return nil, nil, web.Unauthorized(web.ReasonExpiredToken, "Token has expired.")
		}
		return nil, nil, web.Unauthorized(web.ReasonInvalidToken, "Invalid token.")
	}

	revoked, err := g.denylist.Revoked(r.Context(), claims.ID)
	if err != nil {
		return nil, nil, web.Internal(err)
	}
	if revoked {
		return nil, nil, web.Unauthorized(web.ReasonInvalidToken, "Invalid token.")
	}

	adminID, err := claims.AdminID()
	if err != nil {
		return nil, nil, web.Unauthorized(web.ReasonInvalidToken, "Invalid token.")
	}

	admin, err := g.admins.FindByID(r.Context(), adminID)
	if err != nil {
		return nil, nil, web.Internal(err)
	}
	if admin == nil || !admin.Active {
		return nil, nil, web.Unauthorized(web.ReasonInvalidToken, "Invalid token.")
	}

	return admin, claims, nil
}

// RequireAuth rejects requests without a valid token and attaches the
// acting admin and claims to the context for downstream handlers.
func (g *AuthGate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, claims, err := g.authenticate(r)
		if err != nil {
			web.RespondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withAdmin(r.Context(), admin, claims)))
	})
}

// OptionalAuth attaches the admin when a valid token is present but never
// fails the request; absence or invalidity leaves no admin attached.
func (g *AuthGate) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if admin, claims, err := g.authenticate(r); err == nil {
			r = r.WithContext(withAdmin(r.Context(), admin, claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns 403 unless the attached admin's role is in the
// allow-list. Must be applied after RequireAuth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin := AdminFromCtx(r.Context())
			if admin == nil || !allowed[admin.Role] {
				web.RespondError(w, r, web.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withAdmin(ctx context.Context, admin *models.Admin, claims *token.Claims) context.Context {
	ctx = context.WithValue(ctx, AdminKey, admin)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// AdminFromCtx extracts the acting admin from the request context.
// Returns nil if the request is not authenticated.
func AdminFromCtx(ctx context.Context) *models.Admin {
	admin, _ := ctx.Value(AdminKey).(*models.Admin)
	return admin
}

// ClaimsFromCtx extracts the verified token claims from the request context.
// Returns nil if the request is not authenticated.
func ClaimsFromCtx(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*token.Claims)
	return claims
}
