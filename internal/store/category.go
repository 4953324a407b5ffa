// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"catalogd/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, description, icon, gradient,
	status, sort_order, item_count, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Gradient,
		&c.Status, &c.SortOrder, &c.ItemCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryFilter narrows category list queries. SortColumn must come from
// the handler-side allow-list; it is interpolated into the query.
type CategoryFilter struct {
	Search     string
	Status     models.CategoryStatus
	SortColumn string
	Desc       bool
	Limit      int
	Offset     int
}

// whereClause builds the WHERE fragment and arguments for the filter.
func (f CategoryFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of categories matching the filter plus the total
// match count.
func (s *CategoryStore) List(ctx context.Context, f CategoryFilter) ([]models.Category, int, error) {
	where, args := f.whereClause()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(
		`SELECT %s FROM categories%s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		categoryColumns, where, f.SortColumn, dir, len(args)+1, len(args)+2,
	)
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, total, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// SlugExists reports whether a category with the given slug exists,
// optionally excluding one document (for updates).
func (s *CategoryStore) SlugExists(ctx context.Context, slug string, exclude *uuid.UUID) (bool, error) {
	var count int
	var err error
	if exclude == nil {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE slug = $1`, slug).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE slug = $1 AND id <> $2`, slug, *exclude).Scan(&count)
	}
	if err != nil {
		return false, fmt.Errorf("category slug exists: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, icon, gradient, status, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.Description, c.Icon, c.Gradient, c.Status, c.SortOrder,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET
			name = $1, slug = $2, description = $3, icon = $4, gradient = $5,
			status = $6, sort_order = $7, updated_at = NOW()
		WHERE id = $8
	`, c.Name, c.Slug, c.Description, c.Icon, c.Gradient, c.Status, c.SortOrder, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category by ID. Callers must check ReferencingItems
// first; the FK constraint is the backstop.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ReferencingItems counts all items referencing the category, any status.
func (s *CategoryStore) ReferencingItems(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE category_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count referencing items: %w", err)
	}
	return count, nil
}

// RecountItems recomputes the denormalized active-item count for a category
// in a single statement. The count can be immediately stale relative to a
// concurrent item mutation; callers treat it as best-effort.
func (s *CategoryStore) RecountItems(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET
			item_count = (SELECT COUNT(*) FROM items WHERE category_id = $1 AND status = 'active'),
			updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("recount category items: %w", err)
	}
	return nil
}

// Stats returns per-category total/active/draft item counts via a join over
// the items table, ordered by sort order.
func (s *CategoryStore) Stats(ctx context.Context) ([]models.CategoryStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug,
		       COUNT(i.id),
		       COUNT(i.id) FILTER (WHERE i.status = 'active'),
		       COUNT(i.id) FILTER (WHERE i.status = 'draft')
		FROM categories c
		LEFT JOIN items i ON i.category_id = c.id
		GROUP BY c.id
		ORDER BY c.sort_order, c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	var stats []models.CategoryStats
	for rows.Next() {
		var cs models.CategoryStats
		if err := rows.Scan(&cs.ID, &cs.Name, &cs.Slug, &cs.TotalItems, &cs.Active, &cs.Draft); err != nil {
			return nil, fmt.Errorf("scan category stats: %w", err)
		}
		stats = append(stats, cs)
	}
	return stats, rows.Err()
}
