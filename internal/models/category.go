// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryStatus is the lifecycle state of a category.
type CategoryStatus string

const (
	CategoryActive   CategoryStatus = "active"
	CategoryInactive CategoryStatus = "inactive"
)

// Valid reports whether the status is one of the known values.
func (s CategoryStatus) Valid() bool {
	return s == CategoryActive || s == CategoryInactive
}

// Category represents a catalog taxonomy entry. ItemCount is denormalized
// and maintained best-effort after item mutations; it counts active items
// only.
type Category struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Icon        *string        `json:"icon"`
	Gradient    *string        `json:"gradient"`
	Status      CategoryStatus `json:"status"`
	SortOrder   int            `json:"sort_order"`
	ItemCount   int            `json:"item_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CategoryStats holds the per-category aggregate returned by the stats
// endpoint. Counts come from a join over the items table, not from the
// denormalized item_count column.
type CategoryStats struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	TotalItems int       `json:"total_items"`
	Active     int       `json:"active_items"`
	Draft      int       `json:"draft_items"`
}
