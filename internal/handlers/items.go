// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"catalogd/internal/cache"
	"catalogd/internal/models"
	"catalogd/internal/slug"
	"catalogd/internal/store"
	"catalogd/internal/web"
)

// itemSortFields maps API sort keys to columns.
var itemSortFields = map[string]string{
	"title":       "i.title",
	"createdAt":   "i.created_at",
	"updatedAt":   "i.updated_at",
	"releaseDate": "i.release_date",
}

// Items groups the catalog HTTP handlers.
type Items struct {
	items      *store.ItemStore
	categories *store.CategoryStore
	stats      *cache.StatsCache
}

// NewItems creates the item handler group.
func NewItems(items *store.ItemStore, categories *store.CategoryStore, stats *cache.StatsCache) *Items {
	return &Items{items: items, categories: categories, stats: stats}
}

// recount refreshes the denormalized item count of each affected category.
// Failures are logged and swallowed: the count is best-effort and must
// never fail the triggering request.
func (h *Items) recount(ctx context.Context, categoryIDs ...uuid.UUID) {
	for _, id := range categoryIDs {
		if err := h.categories.RecountItems(ctx, id); err != nil {
			slog.Error("category recount failed", "category_id", id, "error", err)
		}
	}
	h.stats.Invalidate(ctx, categoryStatsKey, itemStatsKey)
}

// List returns a paginated, filtered item listing.
// GET /api/items?page&limit&search&status&category&featured&sort&order
func (h *Items) List(w http.ResponseWriter, r *http.Request) {
	page := web.ParsePage(r, itemSortFields, "i.created_at")
	q := r.URL.Query()

	filter := store.ItemFilter{
		Search:     strings.TrimSpace(q.Get("search")),
		SortColumn: page.Sort,
		Desc:       page.Desc,
		Limit:      page.Limit,
		Offset:     page.Offset(),
	}

	if status := models.ItemStatus(q.Get("status")); status != "" {
		if !status.Valid() {
			web.RespondError(w, r, web.ValidationMsg("Unknown status filter %q.", status))
			return
		}
		filter.Status = status
	}
	if categoryID := q.Get("category"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			web.RespondError(w, r, web.ValidationMsg("Invalid category filter."))
			return
		}
		filter.CategoryID = &id
	}
	if featured := q.Get("featured"); featured != "" {
		val := featured == "true" || featured == "1"
		filter.Featured = &val
	}

	items, total, err := h.items.List(r.Context(), filter)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	web.Respond(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": web.NewPagination(page, total),
	})
}

// Stats returns aggregate item counts by status plus per-category breakdown.
// GET /api/items/stats
func (h *Items) Stats(w http.ResponseWriter, r *http.Request) {
	var cached models.ItemStats
	if h.stats.Get(r.Context(), itemStatsKey, &cached) {
		web.Respond(w, http.StatusOK, map[string]any{"stats": cached})
		return
	}

	stats, err := h.items.Stats(r.Context())
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	h.stats.Set(r.Context(), itemStatsKey, stats)
	web.Respond(w, http.StatusOK, map[string]any{"stats": stats})
}

// Get returns a single item.
// GET /api/items/{id}
func (h *Items) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, web.NotFound("Item"))
		return
	}

	item, err := h.items.FindByID(r.Context(), id)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if item == nil {
		web.RespondError(w, r, web.NotFound("Item"))
		return
	}

	web.Respond(w, http.StatusOK, map[string]any{"item": item})
}

// Create inserts a new item. The referenced category must exist; the new
// category's item count is refreshed afterwards.
// POST /api/items
func (h *Items) Create(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}
	if errs := validateItem(&payload, true); len(errs) > 0 {
		web.RespondError(w, r, web.ValidationError(errs...))
		return
	}

	categoryID, err := h.resolveCategory(r.Context(), *payload.Category)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	item := &models.Item{
		CategoryID: categoryID,
		Status:     models.ItemDraft,
	}
	if err := applyItemPayload(item, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	base := item.Title
	if payload.Slug != nil && strings.TrimSpace(*payload.Slug) != "" {
		base = *payload.Slug
	}
	allocated, err := slug.Unique(r.Context(), base, h.slugProbeExcluding(nil))
	if err != nil {
		web.RespondError(w, r, itemSlugError(err))
		return
	}
	item.Slug = allocated

	created, err := h.items.Create(r.Context(), item)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	h.recount(r.Context(), created.CategoryID)
	web.RespondMessage(w, http.StatusCreated, "Item created.", map[string]any{"item": created})
}

// Update modifies an existing item. When the category changes, both the old
// and new categories get their counts refreshed.
// PUT /api/items/{id}
func (h *Items) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, web.NotFound("Item"))
		return
	}

	var payload itemPayload
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}
	if errs := validateItem(&payload, false); len(errs) > 0 {
		web.RespondError(w, r, web.ValidationError(errs...))
		return
	}

	item, err := h.items.FindByID(r.Context(), id)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if item == nil {
		web.RespondError(w, r, web.NotFound("Item"))
		return
	}

	oldCategory := item.CategoryID
	if payload.Category != nil {
		categoryID, err := h.resolveCategory(r.Context(), *payload.Category)
		if err != nil {
			web.RespondError(w, r, err)
			return
		}
		item.CategoryID = categoryID
	}

	if err := applyItemPayload(item, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	if payload.Slug != nil || payload.Title != nil {
		base := item.Title
		if payload.Slug != nil && strings.TrimSpace(*payload.Slug) != "" {
			base = *payload.Slug
		}
		newSlug, err := slug.Unique(r.Context(), base, h.slugProbeExcluding(&id))
		if err != nil {
			web.RespondError(w, r, itemSlugError(err))
			return
		}
		item.Slug = newSlug
	}

	if err := h.items.Update(r.Context(), item); err != nil {
		web.RespondError(w, r, err)
		return
	}

	if item.CategoryID != oldCategory {
		h.recount(r.Context(), oldCategory, item.CategoryID)
	} else {
		h.recount(r.Context(), item.CategoryID)
	}
	web.RespondMessage(w, http.StatusOK, "Item updated.", map[string]any{"item": item})
}

// UpdateStatus changes only the status of an item and refreshes its
// category's count.
// PATCH /api/items/{id}/status
func (h *Items) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, web.NotFound("Item"))
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}
	status := models.ItemStatus(payload.Status)
	if !status.Valid() {
		web.RespondError(w, r, web.ValidationError(web.FieldError{
			Field: "status", Message: "Status must be active, inactive, or draft.",
		}))
		return
	}

	item, err := h.items.FindByID(r.Context(), id)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if item == nil {
		web.RespondError(w, r, web.NotFound("Item"))
		return
	}

	if err := h.items.UpdateStatus(r.Context(), id, status); err != nil {
		web.RespondError(w, r, err)
		return
	}

	h.recount(r.Context(), item.CategoryID)
	web.RespondMessage(w, http.StatusOK, "Item status updated.", map[string]any{
		"id":     id,
		"status": status,
	})
}

// Delete removes an item and refreshes its category's count.
// DELETE /api/items/{id}
func (h *Items) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, web.NotFound("Item"))
		return
	}

	item, err := h.items.FindByID(r.Context(), id)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if item == nil {
		web.RespondError(w, r, web.NotFound("Item"))
		return
	}

	if err := h.items.Delete(r.Context(), id); err != nil {
		web.RespondError(w, r, err)
		return
	}

	h.recount(r.Context(), item.CategoryID)
	web.RespondMessage(w, http.StatusOK, "Item deleted.", nil)
}

// BulkDelete removes a batch of items, refreshing each affected category's
// count exactly once.
// DELETE /api/items  body {"ids": [...]}
func (h *Items) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := web.Bind(r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}
	if len(payload.IDs) == 0 {
		web.RespondError(w, r, web.ValidationError(web.FieldError{
			Field: "ids", Message: "At least one item id is required.",
		}))
		return
	}

	ids := make([]uuid.UUID, 0, len(payload.IDs))
	for _, raw := range payload.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			web.RespondError(w, r, web.ValidationMsg("Invalid item id %q.", raw))
			return
		}
		ids = append(ids, id)
	}

	affected, err := h.items.BulkDelete(r.Context(), ids)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	h.recount(r.Context(), affected...)
	web.RespondMessage(w, http.StatusOK, "Items deleted.", map[string]any{
		"deleted_categories_affected": len(affected),
	})
}

// resolveCategory parses and verifies the category reference at write time.
func (h *Items) resolveCategory(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, web.ValidationError(web.FieldError{
			Field: "category", Message: "Category must be a valid id.",
		})
	}

	category, err := h.categories.FindByID(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if category == nil {
		return uuid.Nil, web.ValidationError(web.FieldError{
			Field: "category", Message: "Referenced category does not exist.",
		})
	}
	return id, nil
}

// applyItemPayload copies present payload fields onto the model.
func applyItemPayload(it *models.Item, p *itemPayload) error {
	if p.Title != nil {
		it.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Status != nil {
		it.Status = models.ItemStatus(*p.Status)
	}
	if p.Featured != nil {
		it.Featured = *p.Featured
	}
	if p.ReleaseDate != nil {
		if *p.ReleaseDate == "" {
			it.ReleaseDate = nil
		} else {
			parsed, err := parseDate(*p.ReleaseDate)
			if err != nil {
				return web.ValidationError(web.FieldError{
					Field: "release_date", Message: "Release date must be an RFC 3339 timestamp or YYYY-MM-DD.",
				})
			}
			it.ReleaseDate = &parsed
		}
	}
	if p.Platforms != nil {
		it.Platforms = *p.Platforms
	}
	if p.Genres != nil {
		it.Genres = *p.Genres
	}
	if p.Tags != nil {
		it.Tags = *p.Tags
	}
	if p.CoverImage != nil {
		it.CoverImage = p.CoverImage
	}
	if p.Screenshots != nil {
		it.Screenshots = *p.Screenshots
	}
	if p.Characters != nil {
		it.Characters = *p.Characters
	}
	if p.Rating != nil {
		it.Rating = p.Rating
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps or bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// slugProbeExcluding adapts the store's existence check to the allocator.
func (h *Items) slugProbeExcluding(exclude *uuid.UUID) slug.ExistsFunc {
	return func(ctx context.Context, s string) (bool, error) {
		return h.items.SlugExists(ctx, s, exclude)
	}
}

// itemSlugError maps allocator failures to API errors.
func itemSlugError(err error) error {
	if errors.Is(err, slug.ErrEmpty) {
		return web.ValidationMsg("A title is required to generate a slug.")
	}
	return err
}
