// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the lifecycle state of a catalog item.
type ItemStatus string

const (
	ItemActive   ItemStatus = "active"
	ItemInactive ItemStatus = "inactive"
	ItemDraft    ItemStatus = "draft"
)

// Valid reports whether the status is one of the known values.
func (s ItemStatus) Valid() bool {
	return s == ItemActive || s == ItemInactive || s == ItemDraft
}

// Rating is the structured rating block carried by items that have one.
// Each axis is bounded to 0..10 by the request validator.
type Rating struct {
	Overall  float64 `json:"overall"`
	Gameplay float64 `json:"gameplay,omitempty"`
	Graphics float64 `json:"graphics,omitempty"`
	Story    float64 `json:"story,omitempty"`
}

// Item represents a single catalog entry (movie, series, game, ...).
// The schema is a superset: list fields and the rating block are optional
// so both the movies/series shape and the games shape fit one model.
type Item struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	CategoryID  uuid.UUID  `json:"category_id"`
	Status      ItemStatus `json:"status"`
	Featured    bool       `json:"featured"`
	ReleaseDate *time.Time `json:"release_date"`
	Platforms   []string   `json:"platforms"`
	Genres      []string   `json:"genres"`
	Tags        []string   `json:"tags"`
	CoverImage  *string    `json:"cover_image"`
	Screenshots []string   `json:"screenshots"`
	Characters  []string   `json:"characters"`
	Rating      *Rating    `json:"rating"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Virtual field populated by list/get queries.
	CategoryName string `json:"category_name,omitempty"`
}

// ItemStats holds the aggregate counts returned by the item stats endpoint.
type ItemStats struct {
	Total      int             `json:"total"`
	Active     int             `json:"active"`
	Inactive   int             `json:"inactive"`
	Draft      int             `json:"draft"`
	Featured   int             `json:"featured"`
	ByCategory []CategoryStats `json:"by_category"`
}
