// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router assembles the HTTP route tree and middleware chains.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"catalogd/internal/handlers"
	"catalogd/internal/middleware"
	"catalogd/internal/models"
	"catalogd/internal/web"
)

// Rate limits, per 15-minute sliding window.
const (
	rateWindow  = 15 * time.Minute
	apiLimit    = 300
	authLimit   = 10
	createLimit = 30
	uploadLimit = 20
)

// Deps bundles everything the route tree needs.
type Deps struct {
	Auth       *handlers.Auth
	Categories *handlers.Categories
	Items      *handlers.Items
	Uploads    *handlers.Uploads
	Gate       *middleware.AuthGate
	CORS       []string
}

// New builds the application router with its full middleware stack.
func New(d Deps) *chi.Mux {
	apiLimiter := middleware.NewRateLimiter("api", apiLimit, rateWindow)
	authLimiter := middleware.NewRateLimiter("auth", authLimit, rateWindow)
	createLimiter := middleware.NewRateLimiter("create", createLimit, rateWindow)
	uploadLimiter := middleware.NewRateLimiter("upload", uploadLimit, rateWindow)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(d.CORS))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		web.RespondMessage(w, http.StatusOK, "ok", nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLimiter.Middleware)

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter.Middleware).Post("/login", d.Auth.Login)

			r.Group(func(r chi.Router) {
				r.Use(d.Gate.RequireAuth)

				r.With(middleware.RequireRole(models.RoleSuperAdmin)).Post("/register", d.Auth.Register)
				r.Post("/logout", d.Auth.Logout)
				r.Get("/profile", d.Auth.Profile)
				r.Put("/profile", d.Auth.UpdateProfile)
				r.Put("/change-password", d.Auth.ChangePassword)
				r.Post("/2fa/setup", d.Auth.TwoFASetup)
				r.Post("/2fa/verify", d.Auth.TwoFAVerify)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", d.Categories.List)
			r.Get("/stats", d.Categories.Stats)
			r.Get("/{id}", d.Categories.Get)

			r.Group(func(r chi.Router) {
				r.Use(d.Gate.RequireAuth)

				r.With(createLimiter.Middleware).Post("/", d.Categories.Create)
				r.Put("/{id}", d.Categories.Update)
				r.Delete("/{id}", d.Categories.Delete)
			})
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", d.Items.List)
			r.Get("/stats", d.Items.Stats)
			r.Get("/{id}", d.Items.Get)

			r.Group(func(r chi.Router) {
				r.Use(d.Gate.RequireAuth)

				r.With(createLimiter.Middleware).Post("/", d.Items.Create)
				r.Put("/{id}", d.Items.Update)
				r.Patch("/{id}/status", d.Items.UpdateStatus)
				r.Delete("/{id}", d.Items.Delete)
				r.Delete("/", d.Items.BulkDelete)

				r.With(uploadLimiter.Middleware).Post("/upload", d.Uploads.Upload)
				// Legacy alias kept for older admin frontends.
				r.With(uploadLimiter.Middleware).Post("/upload-image", d.Uploads.Upload)
				r.Delete("/upload", d.Uploads.Remove)
			})
		})
	})

	return r
}
