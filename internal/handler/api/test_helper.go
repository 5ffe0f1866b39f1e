// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/Legyan/yamdb-final/internal/auth"
	"github.com/Legyan/yamdb-final/internal/middleware"
	"github.com/Legyan/yamdb-final/internal/model"
	"github.com/Legyan/yamdb-final/internal/notify"
	"github.com/Legyan/yamdb-final/internal/store"
)

const testJWTSecret = "test-secret-key-0123456789abcdef0123"

// testDB creates an in-memory SQLite database with the full schema for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			is_superuser BOOLEAN NOT NULL DEFAULT 0,
			confirmation_code_hash TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			slug TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE genres (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			slug TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE titles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			year INTEGER NOT NULL,
			description TEXT,
			category_id INTEGER,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL
		);

		CREATE TABLE genres_titles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title_id INTEGER NOT NULL,
			genre_id INTEGER,
			FOREIGN KEY (title_id) REFERENCES titles(id) ON DELETE CASCADE,
			FOREIGN KEY (genre_id) REFERENCES genres(id) ON DELETE SET NULL
		);

		CREATE TABLE reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title_id INTEGER NOT NULL,
			author_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 10),
			pub_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (title_id, author_id),
			FOREIGN KEY (title_id) REFERENCES titles(id) ON DELETE CASCADE,
			FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			review_id INTEGER NOT NULL,
			author_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			pub_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE,
			FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSetup creates a test database and API handler for testing. The
// notifier has no delivery endpoint, so confirmation codes are only logged.
func testSetup(t *testing.T) (*sql.DB, *Handler) {
	t.Helper()
	db := testDB(t)
	issuer := auth.NewTokenIssuer(testJWTSecret, time.Hour)
	notifier := notify.New("", "", nil)
	return db, NewHandler(db, issuer, notifier)
}

// createTestUser creates a test user with the given role.
func createTestUser(t *testing.T, db *sql.DB, username string, role model.Role) store.User {
	t.Helper()
	now := time.Now()

	result, err := db.Exec(
		`INSERT INTO users (username, email, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		username, username+"@example.com", role.String(), now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		Role:      role.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// createTestCategory creates a test category in the database.
func createTestCategory(t *testing.T, db *sql.DB, name, slug string) store.Category {
	t.Helper()
	now := time.Now()

	result, err := db.Exec(
		`INSERT INTO categories (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, slug, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.Category{ID: id, Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
}

// createTestGenre creates a test genre in the database.
func createTestGenre(t *testing.T, db *sql.DB, name, slug string) store.Genre {
	t.Helper()
	now := time.Now()

	result, err := db.Exec(
		`INSERT INTO genres (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, slug, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test genre: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.Genre{ID: id, Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
}

// createTestTitle creates a test title, optionally linked to a category.
func createTestTitle(t *testing.T, db *sql.DB, name string, year int64, categoryID *int64) store.Title {
	t.Helper()
	now := time.Now()

	var catID sql.NullInt64
	if categoryID != nil {
		catID = sql.NullInt64{Int64: *categoryID, Valid: true}
	}

	result, err := db.Exec(
		`INSERT INTO titles (name, year, category_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		name, year, catID, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test title: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.Title{ID: id, Name: name, Year: year, CategoryID: catID, CreatedAt: now, UpdatedAt: now}
}

// linkTestGenre links a genre to a title.
func linkTestGenre(t *testing.T, db *sql.DB, titleID, genreID int64) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO genres_titles (title_id, genre_id) VALUES (?, ?)`,
		titleID, genreID,
	); err != nil {
		t.Fatalf("failed to link test genre: %v", err)
	}
}

// createTestReview creates a test review.
func createTestReview(t *testing.T, db *sql.DB, titleID, authorID, score int64) store.Review {
	t.Helper()
	now := time.Now()

	result, err := db.Exec(
		`INSERT INTO reviews (title_id, author_id, text, score, pub_date) VALUES (?, ?, ?, ?, ?)`,
		titleID, authorID, "review text", score, now,
	)
	if err != nil {
		t.Fatalf("failed to create test review: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.Review{ID: id, TitleID: titleID, AuthorID: authorID, Text: "review text", Score: score, PubDate: now}
}

// createTestComment creates a test comment.
func createTestComment(t *testing.T, db *sql.DB, reviewID, authorID int64) store.Comment {
	t.Helper()
	now := time.Now()

	result, err := db.Exec(
		`INSERT INTO comments (review_id, author_id, text, pub_date) VALUES (?, ?, ?, ?)`,
		reviewID, authorID, "comment text", now,
	)
	if err != nil {
		t.Fatalf("failed to create test comment: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.Comment{ID: id, ReviewID: reviewID, AuthorID: authorID, Text: "comment text", PubDate: now}
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithUser injects an authenticated user into the request context.
func requestWithUser(r *http.Request, user store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

// newJSONRequest creates an HTTP request with JSON body and optional URL params.
func newJSONRequest(t *testing.T, method, path string, body string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newGetRequest creates an HTTP GET request with optional URL params.
func newGetRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newDeleteRequest creates an HTTP DELETE request with optional URL params.
func newDeleteRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// dataResponse is a generic wrapper for API responses with a "data" field.
type dataResponse[T any] struct {
	Data T `json:"data"`
}

// listResponse is a generic wrapper for API list responses with data and meta.
type listResponse[T any] struct {
	Data []T   `json:"data"`
	Meta *Meta `json:"meta"`
}

// unmarshalData unmarshals a JSON response body into the specified type.
func unmarshalData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp dataResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data
}

// unmarshalList unmarshals a JSON list response body into the specified type.
func unmarshalList[T any](t *testing.T, w *httptest.ResponseRecorder) ([]T, *Meta) {
	t.Helper()
	var resp listResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data, resp.Meta
}

// executeHandler executes a handler and returns the response recorder.
func executeHandler(t *testing.T, handler func(http.ResponseWriter, *http.Request), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}
