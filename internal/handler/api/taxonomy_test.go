// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"
)

func TestListCategories(t *testing.T) {
	db, handler := testSetup(t)
	createTestCategory(t, db, "Books", "books")
	createTestCategory(t, db, "Movies", "movies")
	createTestCategory(t, db, "Music", "music")

	t.Run("lists all categories", func(t *testing.T) {
		w := executeHandler(t, handler.ListCategories, newGetRequest(t, "/v1/categories", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		items, meta := unmarshalList[TaxonomyAPIResponse](t, w)
		if len(items) != 3 {
			t.Errorf("expected 3 categories, got %d", len(items))
		}
		if meta == nil || meta.Total != 3 {
			t.Errorf("expected meta total 3, got %+v", meta)
		}
	})

	t.Run("filters by name substring", func(t *testing.T) {
		w := executeHandler(t, handler.ListCategories, newGetRequest(t, "/v1/categories?search=Mov", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		items, _ := unmarshalList[TaxonomyAPIResponse](t, w)
		if len(items) != 1 || items[0].Slug != "movies" {
			t.Errorf("unexpected search result: %+v", items)
		}
	})
}

func TestCreateCategory(t *testing.T) {
	db, handler := testSetup(t)

	t.Run("creates with explicit slug", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/categories",
			`{"name": "Books", "slug": "books"}`, nil)
		w := executeHandler(t, handler.CreateCategory, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		resp := unmarshalData[TaxonomyAPIResponse](t, w)
		if resp.Name != "Books" || resp.Slug != "books" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("derives slug from name", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/categories",
			`{"name": "Table Games"}`, nil)
		w := executeHandler(t, handler.CreateCategory, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		resp := unmarshalData[TaxonomyAPIResponse](t, w)
		if resp.Slug != "table-games" {
			t.Errorf("expected derived slug table-games, got %q", resp.Slug)
		}
	})

	t.Run("rejects duplicate slug", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/categories",
			`{"name": "More Books", "slug": "books"}`, nil)
		w := executeHandler(t, handler.CreateCategory, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/categories",
			`{"name": "Books", "slug": "books-2"}`, nil)
		w := executeHandler(t, handler.CreateCategory, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects invalid slug", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/categories",
			`{"name": "Bad", "slug": "Bad Slug!"}`, nil)
		w := executeHandler(t, handler.CreateCategory, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		t.Fatalf("failed to count categories: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 categories in the database, got %d", count)
	}
}

func TestDeleteCategory(t *testing.T) {
	db, handler := testSetup(t)
	category := createTestCategory(t, db, "Books", "books")
	title := createTestTitle(t, db, "Some Book", 1990, &category.ID)

	t.Run("returns 404 for unknown slug", func(t *testing.T) {
		req := newDeleteRequest(t, "/v1/categories/missing", map[string]string{"slug": "missing"})
		w := executeHandler(t, handler.DeleteCategory, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", w.Code)
		}
	})

	t.Run("deletes and detaches titles", func(t *testing.T) {
		req := newDeleteRequest(t, "/v1/categories/books", map[string]string{"slug": "books"})
		w := executeHandler(t, handler.DeleteCategory, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
		}

		var categoryID any
		err := db.QueryRow(`SELECT category_id FROM titles WHERE id = ?`, title.ID).Scan(&categoryID)
		if err != nil {
			t.Fatalf("title should survive category deletion: %v", err)
		}
		if categoryID != nil {
			t.Errorf("expected title category to be nulled, got %v", categoryID)
		}
	})
}

func TestCreateGenre(t *testing.T) {
	_, handler := testSetup(t)

	t.Run("creates a genre", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/genres",
			`{"name": "Drama", "slug": "drama"}`, nil)
		w := executeHandler(t, handler.CreateGenre, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects duplicate slug", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/genres",
			`{"name": "Drama Redux", "slug": "drama"}`, nil)
		w := executeHandler(t, handler.CreateGenre, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestDeleteGenre(t *testing.T) {
	db, handler := testSetup(t)
	genre := createTestGenre(t, db, "Drama", "drama")
	title := createTestTitle(t, db, "Some Play", 1600, nil)
	linkTestGenre(t, db, title.ID, genre.ID)

	req := newDeleteRequest(t, "/v1/genres/drama", map[string]string{"slug": "drama"})
	w := executeHandler(t, handler.DeleteGenre, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
	}

	// The title survives with the genre link nulled
	var titleCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM titles WHERE id = ?`, title.ID).Scan(&titleCount); err != nil {
		t.Fatalf("failed to count titles: %v", err)
	}
	if titleCount != 1 {
		t.Error("title should survive genre deletion")
	}
}
