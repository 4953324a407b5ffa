// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package token

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces denylist keys in Valkey to avoid collisions.
const denyPrefix = "token:denied:"

// Denylist tracks revoked token IDs in Valkey. Entries carry a TTL equal to
// the token's remaining lifetime, so the set stays bounded.
type Denylist struct {
	client *redis.Client
}

// NewDenylist creates a denylist backed by the given Valkey client.
func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client}
}

// Revoke marks a token ID as revoked until it would have expired anyway.
func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil // Already expired, nothing to revoke.
	}
	if err := d.client.Set(ctx, denyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Revoked reports whether a token ID has been revoked. A Valkey failure is
// returned so the auth gate can decide; it does not silently admit tokens.
func (d *Denylist) Revoked(ctx context.Context, jti string) (bool, error) {
	_, err := d.client.Get(ctx, denyPrefix+jti).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("denylist get: %w", err)
	}
	return true, nil
}
