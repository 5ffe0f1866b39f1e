// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Legyan/yamdb-final/internal/model"
)

func TestCreateTitle(t *testing.T) {
	db, handler := testSetup(t)
	createTestCategory(t, db, "Movies", "movies")
	createTestGenre(t, db, "Drama", "drama")
	createTestGenre(t, db, "Comedy", "comedy")

	t.Run("creates a title with category and genres", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/titles",
			`{"name": "The Movie", "year": 1994, "description": "A film", "category": "movies", "genre": ["drama", "comedy"]}`, nil)
		w := executeHandler(t, handler.CreateTitle, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		resp := unmarshalData[TitleAPIResponse](t, w)
		if resp.Name != "The Movie" || resp.Year != 1994 {
			t.Errorf("unexpected title: %+v", resp)
		}
		if resp.Rating != nil {
			t.Error("new title should have a null rating")
		}
		if resp.Category == nil || resp.Category.Slug != "movies" {
			t.Errorf("unexpected category: %+v", resp.Category)
		}
		if len(resp.Genres) != 2 {
			t.Errorf("expected 2 genres, got %d", len(resp.Genres))
		}
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/titles",
			`{"name": "X", "year": 2000, "category": "missing", "genre": ["drama"]}`, nil)
		w := executeHandler(t, handler.CreateTitle, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects unknown genre", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/titles",
			`{"name": "X", "year": 2000, "category": "movies", "genre": ["missing"]}`, nil)
		w := executeHandler(t, handler.CreateTitle, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects a year in the future", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/titles",
			`{"name": "X", "year": 3000, "category": "movies", "genre": ["drama"]}`, nil)
		w := executeHandler(t, handler.CreateTitle, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects empty genre list", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/titles",
			`{"name": "X", "year": 2000, "category": "movies", "genre": []}`, nil)
		w := executeHandler(t, handler.CreateTitle, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestGetTitle(t *testing.T) {
	db, handler := testSetup(t)
	category := createTestCategory(t, db, "Movies", "movies")
	title := createTestTitle(t, db, "The Movie", 1994, &category.ID)
	author1 := createTestUser(t, db, "rater1", model.RoleUser)
	author2 := createTestUser(t, db, "rater2", model.RoleUser)

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		req := newGetRequest(t, "/v1/titles/9999", map[string]string{"titleID": "9999"})
		w := executeHandler(t, handler.GetTitle, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", w.Code)
		}
	})

	t.Run("returns 400 for malformed id", func(t *testing.T) {
		req := newGetRequest(t, "/v1/titles/abc", map[string]string{"titleID": "abc"})
		w := executeHandler(t, handler.GetTitle, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rating is null without reviews", func(t *testing.T) {
		req := newGetRequest(t, "/v1/titles/1", map[string]string{"titleID": fmt.Sprint(title.ID)})
		w := executeHandler(t, handler.GetTitle, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[TitleAPIResponse](t, w)
		if resp.Rating != nil {
			t.Errorf("expected null rating, got %v", *resp.Rating)
		}
	})

	t.Run("rating averages review scores", func(t *testing.T) {
		createTestReview(t, db, title.ID, author1.ID, 8)
		createTestReview(t, db, title.ID, author2.ID, 10)

		req := newGetRequest(t, "/v1/titles/1", map[string]string{"titleID": fmt.Sprint(title.ID)})
		w := executeHandler(t, handler.GetTitle, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[TitleAPIResponse](t, w)
		if resp.Rating == nil || *resp.Rating != 9.0 {
			t.Errorf("expected rating 9.0, got %v", resp.Rating)
		}
	})
}

func TestListTitles(t *testing.T) {
	db, handler := testSetup(t)
	movies := createTestCategory(t, db, "Movies", "movies")
	books := createTestCategory(t, db, "Books", "books")
	drama := createTestGenre(t, db, "Drama", "drama")

	movie := createTestTitle(t, db, "The Movie", 1994, &movies.ID)
	createTestTitle(t, db, "Old Book", 1870, &books.ID)
	linkTestGenre(t, db, movie.ID, drama.ID)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"no filter", "", 2},
		{"by category", "?category=movies", 1},
		{"by genre", "?genre=drama", 1},
		{"by name substring", "?name=Book", 1},
		{"by year", "?year=1994", 1},
		{"no match", "?year=2001", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := executeHandler(t, handler.ListTitles, newGetRequest(t, "/v1/titles"+tc.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			items, meta := unmarshalList[TitleAPIResponse](t, w)
			if len(items) != tc.want {
				t.Errorf("expected %d titles, got %d", tc.want, len(items))
			}
			if meta == nil || meta.Total != int64(tc.want) {
				t.Errorf("expected meta total %d, got %+v", tc.want, meta)
			}
		})
	}
}

func TestUpdateTitle(t *testing.T) {
	db, handler := testSetup(t)
	category := createTestCategory(t, db, "Movies", "movies")
	drama := createTestGenre(t, db, "Drama", "drama")
	comedy := createTestGenre(t, db, "Comedy", "comedy")
	title := createTestTitle(t, db, "The Movie", 1994, &category.ID)
	linkTestGenre(t, db, title.ID, drama.ID)

	params := map[string]string{"titleID": fmt.Sprint(title.ID)}

	t.Run("patches fields and replaces genres", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPatch, "/v1/titles/1",
			`{"name": "Renamed", "genre": ["comedy"]}`, params)
		w := executeHandler(t, handler.UpdateTitle, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		resp := unmarshalData[TitleAPIResponse](t, w)
		if resp.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %q", resp.Name)
		}
		if resp.Year != 1994 {
			t.Errorf("year should be unchanged, got %d", resp.Year)
		}
		if len(resp.Genres) != 1 || resp.Genres[0].Slug != comedy.Slug {
			t.Errorf("expected genres replaced by comedy, got %+v", resp.Genres)
		}
	})

	t.Run("rejects replacing genres with an empty list", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPatch, "/v1/titles/1", `{"genre": []}`, params)
		w := executeHandler(t, handler.UpdateTitle, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestDeleteTitle(t *testing.T) {
	db, handler := testSetup(t)
	title := createTestTitle(t, db, "Doomed", 2000, nil)
	author := createTestUser(t, db, "rater", model.RoleUser)
	review := createTestReview(t, db, title.ID, author.ID, 5)
	createTestComment(t, db, review.ID, author.ID)

	req := newDeleteRequest(t, "/v1/titles/1", map[string]string{"titleID": fmt.Sprint(title.ID)})
	w := executeHandler(t, handler.DeleteTitle, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
	}

	// Reviews and comments cascade
	var reviews, comments int
	if err := db.QueryRow(`SELECT COUNT(*) FROM reviews`).Scan(&reviews); err != nil {
		t.Fatalf("failed to count reviews: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&comments); err != nil {
		t.Fatalf("failed to count comments: %v", err)
	}
	if reviews != 0 || comments != 0 {
		t.Errorf("expected cascade delete, got %d reviews and %d comments", reviews, comments)
	}
}
