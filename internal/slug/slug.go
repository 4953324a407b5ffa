// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation and collision-free
// slug allocation against an existence probe.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmpty is returned when the input produces an empty slug.
var ErrEmpty = errors.New("slug: input produces empty slug")

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace collapses runs of whitespace into a single separator.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// ExistsFunc probes whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Unique generates a slug from base and resolves collisions by appending
// -1, -2, ... until the probe reports the candidate free. The probe and the
// eventual write are separate operations, so two concurrent allocations of
// the same base can still collide; the store's unique index is the backstop.
func Unique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	s := Generate(base)
	if s == "" {
		return "", ErrEmpty
	}

	candidate := s
	for n := 1; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug probe %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", s, n)
	}
}
