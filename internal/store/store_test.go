// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"catalogd/internal/database"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "catalogd")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "catalogd")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testCtx returns a context for store calls in tests.
func testCtx() context.Context {
	return context.Background()
}

// cleanCategories deletes test categories (and their items) by slug prefix.
func cleanCategories(t *testing.T, db *sql.DB, slugPrefix string) {
	t.Helper()
	if _, err := db.Exec(`
		DELETE FROM items WHERE category_id IN
			(SELECT id FROM categories WHERE slug LIKE $1 || '%')
	`, slugPrefix); err != nil {
		t.Errorf("cleanup items: %v", err)
	}
	if _, err := db.Exec("DELETE FROM categories WHERE slug LIKE $1 || '%'", slugPrefix); err != nil {
		t.Errorf("cleanup categories: %v", err)
	}
}

// cleanAdmins deletes test admin accounts by email.
func cleanAdmins(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		if _, err := db.Exec("DELETE FROM admins WHERE email = $1", email); err != nil {
			t.Errorf("cleanup admins: %v", err)
		}
	}
}
