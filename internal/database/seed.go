package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin creates the bootstrap super admin if no admin accounts exist.
// Credentials come from the environment; the default password is rejected
// in production by config validation, so logging the username is safe.
func SeedAdmin(db *sql.DB, username, email, password string) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM admins").Scan(&count); err != nil {
		return fmt.Errorf("seed check admins: %w", err)
	}

	if count > 0 {
		slog.Info("admin accounts exist, skipping bootstrap seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO admins (username, email, password_hash, role, active)
		VALUES ($1, $2, $3, 'super_admin', TRUE)
	`, username, email, string(hash))
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("bootstrap super admin created", "username", username, "email", email)
	return nil
}

// CreateSuperAdmin inserts or updates a super admin account. Unlike
// SeedAdmin it always runs, so it can recover a locked-out install.
func CreateSuperAdmin(db *sql.DB, username, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("create admin bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO admins (username, email, password_hash, role, active)
		VALUES ($1, $2, $3, 'super_admin', TRUE)
		ON CONFLICT (email) DO UPDATE
		SET username = EXCLUDED.username,
		    password_hash = EXCLUDED.password_hash,
		    role = 'super_admin',
		    active = TRUE
	`, username, email, string(hash))
	if err != nil {
		return fmt.Errorf("create admin insert: %w", err)
	}
	return nil
}

// SeedCategories inserts a starter category set for development. It is a
// no-op if any categories already exist.
func SeedCategories(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		return nil
	}

	seed := []struct {
		name, slug, icon string
		order            int
	}{
		{"Movies", "movies", "film", 0},
		{"Series", "series", "tv", 1},
		{"Games", "games", "gamepad", 2},
	}

	for _, c := range seed {
		_, err := db.Exec(`
			INSERT INTO categories (name, slug, icon, status, sort_order)
			VALUES ($1, $2, $3, 'active', $4)
		`, c.name, c.slug, c.icon, c.order)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.slug, err)
		}
	}

	slog.Info("database seeded with starter categories", "count", len(seed))
	return nil
}
