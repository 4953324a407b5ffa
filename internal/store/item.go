// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"catalogd/internal/models"
)

// ItemStore handles all catalog-item database operations.
type ItemStore struct {
	db *sql.DB
}

// NewItemStore creates a new ItemStore with the given database connection.
func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `i.id, i.title, i.slug, i.description, i.category_id,
	i.status, i.featured, i.release_date, i.platforms, i.genres, i.tags,
	i.cover_image, i.screenshots, i.characters, i.rating,
	i.created_at, i.updated_at`

// scanItem scans a row (with the category name joined in) into an Item.
func scanItem(scanner interface{ Scan(...any) error }) (*models.Item, error) {
	var (
		it                                          models.Item
		platforms, genres, tags, screenshots, chars []byte
		rating                                      []byte
		categoryName                                sql.NullString
	)
	err := scanner.Scan(
		&it.ID, &it.Title, &it.Slug, &it.Description, &it.CategoryID,
		&it.Status, &it.Featured, &it.ReleaseDate, &platforms, &genres, &tags,
		&it.CoverImage, &screenshots, &chars, &rating,
		&it.CreatedAt, &it.UpdatedAt, &categoryName,
	)
	if err != nil {
		return nil, err
	}

	it.Platforms = unmarshalList(platforms)
	it.Genres = unmarshalList(genres)
	it.Tags = unmarshalList(tags)
	it.Screenshots = unmarshalList(screenshots)
	it.Characters = unmarshalList(chars)
	if len(rating) > 0 {
		var r models.Rating
		if err := json.Unmarshal(rating, &r); err == nil {
			it.Rating = &r
		}
	}
	it.CategoryName = categoryName.String
	return &it, nil
}

// ratingJSON marshals the rating block for its JSONB column, or SQL NULL.
func ratingJSON(r *models.Rating) any {
	if r == nil {
		return nil
	}
	b, _ := json.Marshal(r)
	return b
}

// ItemFilter narrows item list queries. SortColumn must come from the
// handler-side allow-list; it is interpolated into the query.
type ItemFilter struct {
	Search     string
	Status     models.ItemStatus
	CategoryID *uuid.UUID
	Featured   *bool
	SortColumn string
	Desc       bool
	Limit      int
	Offset     int
}

// whereClause builds the WHERE fragment and arguments for the filter.
func (f ItemFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(i.title ILIKE $%d OR i.description ILIKE $%d)", len(args), len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("i.category_id = $%d", len(args)))
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		conds = append(conds, fmt.Sprintf("i.featured = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of items matching the filter plus the total match count.
func (s *ItemStore) List(ctx context.Context, f ItemFilter) ([]models.Item, int, error) {
	where, args := f.whereClause()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items i`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(
		`SELECT %s, c.name FROM items i
		 LEFT JOIN categories c ON c.id = i.category_id%s
		 ORDER BY %s %s, i.id LIMIT $%d OFFSET $%d`,
		itemColumns, where, f.SortColumn, dir, len(args)+1, len(args)+2,
	)
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, total, rows.Err()
}

// FindByID retrieves an item by ID. Returns nil if not found.
func (s *ItemStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`, c.name FROM items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.id = $1
	`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by id: %w", err)
	}
	return it, nil
}

// SlugExists reports whether an item with the given slug exists, optionally
// excluding one document (for updates).
func (s *ItemStore) SlugExists(ctx context.Context, slug string, exclude *uuid.UUID) (bool, error) {
	var count int
	var err error
	if exclude == nil {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE slug = $1`, slug).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE slug = $1 AND id <> $2`, slug, *exclude).Scan(&count)
	}
	if err != nil {
		return false, fmt.Errorf("item slug exists: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new item and returns it.
func (s *ItemStore) Create(ctx context.Context, it *models.Item) (*models.Item, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO items (title, slug, description, category_id, status, featured,
			release_date, platforms, genres, tags, cover_image, screenshots,
			characters, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, it.Title, it.Slug, it.Description, it.CategoryID, it.Status, it.Featured,
		it.ReleaseDate, listJSON(it.Platforms), listJSON(it.Genres), listJSON(it.Tags),
		it.CoverImage, listJSON(it.Screenshots), listJSON(it.Characters), ratingJSON(it.Rating),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update modifies an existing item.
func (s *ItemStore) Update(ctx context.Context, it *models.Item) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE items SET
			title = $1, slug = $2, description = $3, category_id = $4,
			status = $5, featured = $6, release_date = $7, platforms = $8,
			genres = $9, tags = $10, cover_image = $11, screenshots = $12,
			characters = $13, rating = $14, updated_at = NOW()
		WHERE id = $15
	`, it.Title, it.Slug, it.Description, it.CategoryID, it.Status, it.Featured,
		it.ReleaseDate, listJSON(it.Platforms), listJSON(it.Genres), listJSON(it.Tags),
		it.CoverImage, listJSON(it.Screenshots), listJSON(it.Characters), ratingJSON(it.Rating),
		it.ID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// UpdateStatus changes only the status of an item.
func (s *ItemStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ItemStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE items SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	return nil
}

// Delete removes an item by ID.
func (s *ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// BulkDelete removes the given items and returns the distinct category IDs
// they referenced, so callers can recount each affected category once.
func (s *ItemStore) BulkDelete(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	in := strings.Join(placeholders, ", ")

	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM items WHERE id IN (`+in+`) RETURNING category_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("bulk delete items: %w", err)
	}
	defer rows.Close()

	seen := make(map[uuid.UUID]bool)
	var affected []uuid.UUID
	for rows.Next() {
		var cid uuid.UUID
		if err := rows.Scan(&cid); err != nil {
			return nil, fmt.Errorf("scan deleted item: %w", err)
		}
		if !seen[cid] {
			seen[cid] = true
			affected = append(affected, cid)
		}
	}
	return affected, rows.Err()
}

// Stats returns aggregate item counts by status and featured flag plus the
// per-category breakdown.
func (s *ItemStore) Stats(ctx context.Context) (*models.ItemStats, error) {
	stats := &models.ItemStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'inactive'),
		       COUNT(*) FILTER (WHERE status = 'draft'),
		       COUNT(*) FILTER (WHERE featured)
		FROM items
	`).Scan(&stats.Total, &stats.Active, &stats.Inactive, &stats.Draft, &stats.Featured)
	if err != nil {
		return nil, fmt.Errorf("item stats: %w", err)
	}

	byCategory, err := NewCategoryStore(s.db).Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats.ByCategory = byCategory
	return stats, nil
}
