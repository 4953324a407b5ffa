// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests, which go through the real route tree. Tests are skipped when
// PostgreSQL or Valkey are unavailable.
package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"catalogd/internal/cache"
	"catalogd/internal/database"
	"catalogd/internal/handlers"
	"catalogd/internal/middleware"
	"catalogd/internal/models"
	"catalogd/internal/router"
	"catalogd/internal/store"
	"catalogd/internal/token"
	"catalogd/internal/web"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "catalogd")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "catalogd")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkey returns a Valkey client for handler tests on DB 15.
func testValkey(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port,
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: valkey not reachable: %v", err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

// testEnv bundles the full handler stack wired against real services.
type testEnv struct {
	DB         *sql.DB
	Admins     *store.AdminStore
	Categories *store.CategoryStore
	Items      *store.ItemStore
	Tokens     *token.Manager
	Auth       *handlers.Auth
	Gate       *middleware.AuthGate
	Router     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	valkey := testValkey(t)

	admins := store.NewAdminStore(db)
	categories := store.NewCategoryStore(db)
	items := store.NewItemStore(db)

	tokens := token.NewManager("handler-test-secret", time.Hour)
	denylist := token.NewDenylist(valkey)
	stats := cache.NewStatsCache(valkey, time.Minute)

	auth := handlers.NewAuth(admins, tokens, denylist, false)
	gate := middleware.NewAuthGate(tokens, admins, denylist)

	r := router.New(router.Deps{
		Auth:       auth,
		Categories: handlers.NewCategories(categories, stats),
		Items:      handlers.NewItems(items, categories, stats),
		Uploads:    handlers.NewUploads(nil, "test-uploads"),
		Gate:       gate,
		CORS:       []string{"*"},
	})

	return &testEnv{
		DB:         db,
		Admins:     admins,
		Categories: categories,
		Items:      items,
		Tokens:     tokens,
		Auth:       auth,
		Gate:       gate,
		Router:     r,
	}
}

// envelope mirrors the API response shape for decoding in tests.
type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Code    string           `json:"code"`
	Data    map[string]any   `json:"data"`
	Errors  []web.FieldError `json:"errors"`
}

// request performs an HTTP call against the test router and decodes the
// envelope. body is JSON-marshalled when non-nil; bearer is attached when
// non-empty.
func (env *testEnv) request(t *testing.T, method, path, bearer string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, r)

	var resp envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode envelope: %v (body: %s)", err, w.Body.String())
		}
	}
	return w.Code, resp
}

// makeAdmin creates an admin account directly via the store and registers
// cleanup for it.
func (env *testEnv) makeAdmin(t *testing.T, username, email, password string, role models.Role) *models.Admin {
	t.Helper()

	t.Cleanup(func() {
		if _, err := env.DB.Exec("DELETE FROM admins WHERE email = $1", email); err != nil {
			t.Errorf("cleanup admin: %v", err)
		}
	})

	admin, err := env.Admins.Create(context.Background(), username, email, password, role)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return admin
}

// login performs a real login and returns the issued token.
func (env *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	status, resp := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login: got %d (%s)", status, resp.Message)
	}
	tok, _ := resp.Data["token"].(string)
	if tok == "" {
		t.Fatal("login: no token in response")
	}
	return tok
}

// cleanCatalog removes test categories and their items by slug prefix.
func (env *testEnv) cleanCatalog(t *testing.T, slugPrefix string) {
	t.Helper()
	t.Cleanup(func() {
		if _, err := env.DB.Exec(`
			DELETE FROM items WHERE category_id IN
				(SELECT id FROM categories WHERE slug LIKE $1 || '%')
		`, slugPrefix); err != nil {
			t.Errorf("cleanup items: %v", err)
		}
		if _, err := env.DB.Exec("DELETE FROM categories WHERE slug LIKE $1 || '%'", slugPrefix); err != nil {
			t.Errorf("cleanup categories: %v", err)
		}
	})
}
