// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Legyan/yamdb-final/internal/model"
)

func TestCreateComment(t *testing.T) {
	db, handler := testSetup(t)
	title := createTestTitle(t, db, "The Movie", 1994, nil)
	author := createTestUser(t, db, "alice", model.RoleUser)
	review := createTestReview(t, db, title.ID, author.ID, 8)

	params := map[string]string{
		"titleID":  fmt.Sprint(title.ID),
		"reviewID": fmt.Sprint(review.ID),
	}

	t.Run("requires authentication", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/titles/1/reviews/1/comments",
			`{"text": "Agreed"}`, params)
		w := executeHandler(t, handler.CreateComment, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})

	t.Run("creates a comment", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/titles/1/reviews/1/comments",
			`{"text": "Agreed"}`, params)
		w := executeHandler(t, handler.CreateComment, requestWithUser(req, author))

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		resp := unmarshalData[CommentAPIResponse](t, w)
		if resp.Author != "alice" || resp.Text != "Agreed" {
			t.Errorf("unexpected comment: %+v", resp)
		}
	})

	t.Run("rejects empty text", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/titles/1/reviews/1/comments",
			`{"text": ""}`, params)
		w := executeHandler(t, handler.CreateComment, requestWithUser(req, author))

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("returns 404 for a review of another title", func(t *testing.T) {
		other := createTestTitle(t, db, "Other", 2000, nil)
		badParams := map[string]string{
			"titleID":  fmt.Sprint(other.ID),
			"reviewID": fmt.Sprint(review.ID),
		}
		req := newJSONRequest(t, http.MethodPost, "/v1/titles/2/reviews/1/comments",
			`{"text": "x"}`, badParams)
		w := executeHandler(t, handler.CreateComment, requestWithUser(req, author))

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", w.Code)
		}
	})
}

func TestListComments(t *testing.T) {
	db, handler := testSetup(t)
	title := createTestTitle(t, db, "The Movie", 1994, nil)
	author := createTestUser(t, db, "alice", model.RoleUser)
	review := createTestReview(t, db, title.ID, author.ID, 8)
	createTestComment(t, db, review.ID, author.ID)
	createTestComment(t, db, review.ID, author.ID)

	params := map[string]string{
		"titleID":  fmt.Sprint(title.ID),
		"reviewID": fmt.Sprint(review.ID),
	}

	w := executeHandler(t, handler.ListComments, newGetRequest(t, "/v1/titles/1/reviews/1/comments", params))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	items, meta := unmarshalList[CommentAPIResponse](t, w)
	if len(items) != 2 {
		t.Errorf("expected 2 comments, got %d", len(items))
	}
	if meta == nil || meta.Total != 2 {
		t.Errorf("expected meta total 2, got %+v", meta)
	}
}

func TestUpdateComment(t *testing.T) {
	db, handler := testSetup(t)
	title := createTestTitle(t, db, "The Movie", 1994, nil)
	author := createTestUser(t, db, "alice", model.RoleUser)
	stranger := createTestUser(t, db, "bob", model.RoleUser)
	admin := createTestUser(t, db, "root", model.RoleAdmin)
	review := createTestReview(t, db, title.ID, author.ID, 8)
	comment := createTestComment(t, db, review.ID, author.ID)

	params := map[string]string{
		"titleID":   fmt.Sprint(title.ID),
		"reviewID":  fmt.Sprint(review.ID),
		"commentID": fmt.Sprint(comment.ID),
	}

	t.Run("author can update", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPatch, "/v1/titles/1/reviews/1/comments/1",
			`{"text": "edited"}`, params)
		w := executeHandler(t, handler.UpdateComment, requestWithUser(req, author))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[CommentAPIResponse](t, w)
		if resp.Text != "edited" {
			t.Errorf("expected text edited, got %q", resp.Text)
		}
	})

	t.Run("stranger gets 403", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPatch, "/v1/titles/1/reviews/1/comments/1",
			`{"text": "hijacked"}`, params)
		w := executeHandler(t, handler.UpdateComment, requestWithUser(req, stranger))

		if w.Code != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", w.Code)
		}
	})

	t.Run("admin can update", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPatch, "/v1/titles/1/reviews/1/comments/1",
			`{"text": "cleaned up"}`, params)
		w := executeHandler(t, handler.UpdateComment, requestWithUser(req, admin))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestDeleteComment(t *testing.T) {
	db, handler := testSetup(t)
	title := createTestTitle(t, db, "The Movie", 1994, nil)
	author := createTestUser(t, db, "alice", model.RoleUser)
	stranger := createTestUser(t, db, "bob", model.RoleUser)
	review := createTestReview(t, db, title.ID, author.ID, 8)
	comment := createTestComment(t, db, review.ID, author.ID)

	params := map[string]string{
		"titleID":   fmt.Sprint(title.ID),
		"reviewID":  fmt.Sprint(review.ID),
		"commentID": fmt.Sprint(comment.ID),
	}

	t.Run("stranger gets 403", func(t *testing.T) {
		req := newDeleteRequest(t, "/v1/titles/1/reviews/1/comments/1", params)
		w := executeHandler(t, handler.DeleteComment, requestWithUser(req, stranger))

		if w.Code != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", w.Code)
		}
	})

	t.Run("author can delete", func(t *testing.T) {
		req := newDeleteRequest(t, "/v1/titles/1/reviews/1/comments/1", params)
		w := executeHandler(t, handler.DeleteComment, requestWithUser(req, author))

		if w.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("deleted comment is gone", func(t *testing.T) {
		req := newGetRequest(t, "/v1/titles/1/reviews/1/comments/1", params)
		w := executeHandler(t, handler.GetComment, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", w.Code)
		}
	})
}
