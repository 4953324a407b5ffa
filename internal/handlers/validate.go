// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"catalogd/internal/models"
	"catalogd/internal/web"
)

// Validation limits for catalog and account fields.
const (
	maxNameLen        = 200
	maxTitleLen       = 300
	maxSlugLen        = 300
	maxDescriptionLen = 5_000
	maxListEntries    = 50
	maxListEntryLen   = 500
	maxUsernameLen    = 50
	minPasswordLen    = 8
	maxRating         = 10
)

// categoryPayload is the inbound shape for category create/update. Pointer
// fields distinguish "absent" from "set to zero value".
type categoryPayload struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Gradient    *string `json:"gradient"`
	Status      *string `json:"status"`
	SortOrder   *int    `json:"sort_order"`
}

// validateCategory checks a category payload. create requires a name; on
// update every field is optional but must be valid when present.
func validateCategory(p *categoryPayload, create bool) []web.FieldError {
	var errs []web.FieldError

	if create && (p.Name == nil || strings.TrimSpace(*p.Name) == "") {
		errs = append(errs, web.FieldError{Field: "name", Message: "Name is required."})
	}
	if p.Name != nil && utf8.RuneCountInString(*p.Name) > maxNameLen {
		errs = append(errs, web.FieldError{Field: "name", Message: fmt.Sprintf("Name is too long (max %d characters).", maxNameLen)})
	}
	if p.Slug != nil && utf8.RuneCountInString(*p.Slug) > maxSlugLen {
		errs = append(errs, web.FieldError{Field: "slug", Message: fmt.Sprintf("Slug is too long (max %d characters).", maxSlugLen)})
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > maxDescriptionLen {
		errs = append(errs, web.FieldError{Field: "description", Message: fmt.Sprintf("Description is too long (max %d characters).", maxDescriptionLen)})
	}
	if p.Status != nil && !models.CategoryStatus(*p.Status).Valid() {
		errs = append(errs, web.FieldError{Field: "status", Message: "Status must be active or inactive."})
	}
	if p.SortOrder != nil && *p.SortOrder < 0 {
		errs = append(errs, web.FieldError{Field: "sort_order", Message: "Sort order must not be negative."})
	}

	return errs
}

// itemPayload is the inbound shape for item create/update. The schema is
// the relaxed superset: only category is hard-required on create, and every
// field present is validated.
type itemPayload struct {
	Title       *string        `json:"title"`
	Slug        *string        `json:"slug"`
	Description *string        `json:"description"`
	Category    *string        `json:"category"`
	Status      *string        `json:"status"`
	Featured    *bool          `json:"featured"`
	ReleaseDate *string        `json:"release_date"`
	Platforms   *[]string      `json:"platforms"`
	Genres      *[]string      `json:"genres"`
	Tags        *[]string      `json:"tags"`
	CoverImage  *string        `json:"cover_image"`
	Screenshots *[]string      `json:"screenshots"`
	Characters  *[]string      `json:"characters"`
	Rating      *models.Rating `json:"rating"`
}

// validateItem checks an item payload under the relaxed policy: category is
// the only hard-required field on create.
func validateItem(p *itemPayload, create bool) []web.FieldError {
	var errs []web.FieldError

	if create && (p.Category == nil || strings.TrimSpace(*p.Category) == "") {
		errs = append(errs, web.FieldError{Field: "category", Message: "Category is required."})
	}
	if p.Title != nil && utf8.RuneCountInString(*p.Title) > maxTitleLen {
		errs = append(errs, web.FieldError{Field: "title", Message: fmt.Sprintf("Title is too long (max %d characters).", maxTitleLen)})
	}
	if p.Slug != nil && utf8.RuneCountInString(*p.Slug) > maxSlugLen {
		errs = append(errs, web.FieldError{Field: "slug", Message: fmt.Sprintf("Slug is too long (max %d characters).", maxSlugLen)})
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > maxDescriptionLen {
		errs = append(errs, web.FieldError{Field: "description", Message: fmt.Sprintf("Description is too long (max %d characters).", maxDescriptionLen)})
	}
	if p.Status != nil && !models.ItemStatus(*p.Status).Valid() {
		errs = append(errs, web.FieldError{Field: "status", Message: "Status must be active, inactive, or draft."})
	}

	errs = append(errs, validateList("platforms", p.Platforms)...)
	errs = append(errs, validateList("genres", p.Genres)...)
	errs = append(errs, validateList("tags", p.Tags)...)
	errs = append(errs, validateList("screenshots", p.Screenshots)...)
	errs = append(errs, validateList("characters", p.Characters)...)

	if p.Rating != nil {
		errs = append(errs, validateRating(p.Rating)...)
	}

	return errs
}

// validateList checks a string-list field: bounded entry count, no empty or
// oversized entries.
func validateList(field string, list *[]string) []web.FieldError {
	if list == nil {
		return nil
	}
	if len(*list) > maxListEntries {
		return []web.FieldError{{Field: field, Message: fmt.Sprintf("Too many %s entries (max %d).", field, maxListEntries)}}
	}
	for _, entry := range *list {
		if strings.TrimSpace(entry) == "" {
			return []web.FieldError{{Field: field, Message: fmt.Sprintf("Entries in %s must not be empty.", field)}}
		}
		if utf8.RuneCountInString(entry) > maxListEntryLen {
			return []web.FieldError{{Field: field, Message: fmt.Sprintf("Entries in %s are too long (max %d characters).", field, maxListEntryLen)}}
		}
	}
	return nil
}

// validateRating bounds every rating axis to 0..10.
func validateRating(r *models.Rating) []web.FieldError {
	var errs []web.FieldError
	axes := []struct {
		name  string
		value float64
	}{
		{"rating.overall", r.Overall},
		{"rating.gameplay", r.Gameplay},
		{"rating.graphics", r.Graphics},
		{"rating.story", r.Story},
	}
	for _, axis := range axes {
		if axis.value < 0 || axis.value > maxRating {
			errs = append(errs, web.FieldError{Field: axis.name, Message: fmt.Sprintf("%s must be between 0 and %d.", axis.name, maxRating)})
		}
	}
	return errs
}

// validateProfile checks the account identity fields.
func validateProfile(username, email string) []web.FieldError {
	var errs []web.FieldError

	username = strings.TrimSpace(username)
	if username == "" {
		errs = append(errs, web.FieldError{Field: "username", Message: "Username is required."})
	} else if utf8.RuneCountInString(username) > maxUsernameLen {
		errs = append(errs, web.FieldError{Field: "username", Message: fmt.Sprintf("Username is too long (max %d characters).", maxUsernameLen)})
	}

	if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, web.FieldError{Field: "email", Message: "A valid email address is required."})
	}

	return errs
}

// validateCredentials checks registration input.
func validateCredentials(username, email, password string) []web.FieldError {
	errs := validateProfile(username, email)
	if utf8.RuneCountInString(password) < minPasswordLen {
		errs = append(errs, web.FieldError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters.", minPasswordLen)})
	}
	return errs
}
