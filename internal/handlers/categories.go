// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handler groups for the catalog API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"catalogd/internal/cache"
	"catalogd/internal/models"
	"catalogd/internal/slug"
	"catalogd/internal/store"
	"catalogd/internal/web"
)

// statsCacheKeys invalidated on any catalog or taxonomy mutation.
const (
	categoryStatsKey = "categories"
	itemStatsKey     = "items"
)

// categorySortFields maps API sort keys to columns.
var categorySortFields = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
	"sortOrder": "sort_order",
	"itemCount": "item_count",
}

// Categories groups the taxonomy HTTP handlers.
type Categories struct {
	categories *store.CategoryStore
	stats      *cache.StatsCache
}

// NewCategories creates the category handler group.
func NewCategories(categories *store.CategoryStore, stats *cache.StatsCache) *Categories {
	return &Categories{categories: categories, stats: stats}
}

// List returns a paginated, filtered category listing.
// GET /api/categories?page&limit&search&status&sort&order
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	page := web.ParsePage(r, categorySortFields, "sort_order")

	status := models.CategoryStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		web.RespondError(w, r, web.ValidationMsg("Unknown status filter %q.", status))
		return
	}

	categories, total, err := h.categories.List(r.Context(), store.CategoryFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Status:     status,
		SortColumn: page.Sort,
		Desc:       page.Desc,
		Limit:      page.Limit,
		Offset:     page.Offset(),
	})
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	web.Respond(w, http.StatusOK, map[string]any{
		"categories": categories,
		"pagination": web.NewPagination(page, total),
	})
}

// Stats returns per-category item aggregates.
// GET /api/categories/stats
func (h *Categories) Stats(w http.ResponseWriter, r *http.Request) {
	var cached []models.CategoryStats
	if h.stats.Get(r.Context(), categoryStatsKey, &cached) {
		web.Respond(w, http.StatusOK, map[string]any{"categories": cached})
		return
	}

	stats, err := h.categories.Stats(r.Context())
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	h.stats.Set(r.Context(), categoryStatsKey, stats)
	web.Respond(w, http.StatusOK, map[string]any{"categories": stats})
}

// Get returns a single category.
// GET /api/categories/{id}
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, web.NotFound("Category"))
		return
	}

	category, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if category == nil {
		web.RespondError(w, r, web.NotFound("Category"))
		return
	}

	web.Respond(w, http.StatusOK, map[string]any{"category": category})
}

// Create inserts a new category, allocating a unique slug when none is given.
// POST /api/categories
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}
	if errs := validateCategory(&payload, true); len(errs) > 0 {
		web.RespondError(w, r, web.ValidationError(errs...))
		return
	}

	category := &models.Category{
		Name:      strings.TrimSpace(*payload.Name),
		Status:    models.CategoryActive,
		SortOrder: 0,
	}
	applyCategoryPayload(category, &payload)

	base := category.Name
	if payload.Slug != nil && strings.TrimSpace(*payload.Slug) != "" {
		base = *payload.Slug
	}
	allocated, err := slug.Unique(r.Context(), base, h.slugProbeExcluding(nil))
	if err != nil {
		web.RespondError(w, r, slugError(err))
		return
	}
	category.Slug = allocated

	created, err := h.categories.Create(r.Context(), category)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	h.stats.Invalidate(r.Context(), categoryStatsKey, itemStatsKey)
	web.RespondMessage(w, http.StatusCreated, "Category created.", map[string]any{"category": created})
}

// applyCategoryPayload copies present payload fields onto the model.
func applyCategoryPayload(c *models.Category, p *categoryPayload) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Icon != nil {
		c.Icon = p.Icon
	}
	if p.Gradient != nil {
		c.Gradient = p.Gradient
	}
	if p.Status != nil {
		c.Status = models.CategoryStatus(*p.Status)
	}
	if p.SortOrder != nil {
		c.SortOrder = *p.SortOrder
	}
}

// Update modifies an existing category, re-validating slug uniqueness
// excluding the category itself.
// PUT /api/categories/{id}
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, web.NotFound("Category"))
		return
	}

	var payload categoryPayload
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}
	if errs := validateCategory(&payload, false); len(errs) > 0 {
		web.RespondError(w, r, web.ValidationError(errs...))
		return
	}

	category, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if category == nil {
		web.RespondError(w, r, web.NotFound("Category"))
		return
	}

	applyCategoryPayload(category, &payload)

	// A new name or explicit slug re-runs allocation excluding this document.
	if payload.Slug != nil || payload.Name != nil {
		base := category.Name
		if payload.Slug != nil && strings.TrimSpace(*payload.Slug) != "" {
			base = *payload.Slug
		}
		newSlug, err := slug.Unique(r.Context(), base, h.slugProbeExcluding(&id))
		if err != nil {
			web.RespondError(w, r, slugError(err))
			return
		}
		category.Slug = newSlug
	}

	if err := h.categories.Update(r.Context(), category); err != nil {
		web.RespondError(w, r, err)
		return
	}

	h.stats.Invalidate(r.Context(), categoryStatsKey, itemStatsKey)
	web.RespondMessage(w, http.StatusOK, "Category updated.", map[string]any{"category": category})
}

// Delete removes a category. Blocked with Conflict while items reference it.
// DELETE /api/categories/{id}
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, web.NotFound("Category"))
		return
	}

	category, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if category == nil {
		web.RespondError(w, r, web.NotFound("Category"))
		return
	}

	count, err := h.categories.ReferencingItems(r.Context(), id)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if count > 0 {
		web.RespondError(w, r, web.Conflict("Cannot delete category %q: %d item(s) still reference it.", category.Name, count))
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		web.RespondError(w, r, err)
		return
	}

	slog.Info("category deleted", "id", id, "slug", category.Slug)
	h.stats.Invalidate(r.Context(), categoryStatsKey, itemStatsKey)
	web.RespondMessage(w, http.StatusOK, "Category deleted.", nil)
}

// slugProbeExcluding adapts the store's existence check to the allocator.
func (h *Categories) slugProbeExcluding(exclude *uuid.UUID) slug.ExistsFunc {
	return func(ctx context.Context, s string) (bool, error) {
		return h.categories.SlugExists(ctx, s, exclude)
	}
}

// slugError maps allocator failures to API errors.
func slugError(err error) error {
	if errors.Is(err, slug.ErrEmpty) {
		return web.ValidationMsg("A name is required to generate a slug.")
	}
	return err
}
