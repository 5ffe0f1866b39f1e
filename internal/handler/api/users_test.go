// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/Legyan/yamdb-final/internal/model"
)

func TestListUsers(t *testing.T) {
	db, handler := testSetup(t)
	createTestUser(t, db, "alice", model.RoleUser)
	createTestUser(t, db, "bob", model.RoleUser)
	createTestUser(t, db, "charlie", model.RoleModerator)

	t.Run("lists all users", func(t *testing.T) {
		w := executeHandler(t, handler.ListUsers, newGetRequest(t, "/v1/users", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		items, meta := unmarshalList[UserAPIResponse](t, w)
		if len(items) != 3 {
			t.Errorf("expected 3 users, got %d", len(items))
		}
		if meta == nil || meta.Total != 3 {
			t.Errorf("expected meta total 3, got %+v", meta)
		}
	})

	t.Run("filters by username substring", func(t *testing.T) {
		w := executeHandler(t, handler.ListUsers, newGetRequest(t, "/v1/users?search=bo", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		items, _ := unmarshalList[UserAPIResponse](t, w)
		if len(items) != 1 || items[0].Username != "bob" {
			t.Errorf("unexpected search result: %+v", items)
		}
	})
}

func TestCreateUserAdmin(t *testing.T) {
	_, handler := testSetup(t)

	t.Run("creates a moderator", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/users",
			`{"username": "mod", "email": "mod@example.com", "role": "moderator"}`, nil)
		w := executeHandler(t, handler.CreateUser, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		resp := unmarshalData[UserAPIResponse](t, w)
		if resp.Role != "moderator" {
			t.Errorf("expected role moderator, got %q", resp.Role)
		}
	})

	t.Run("defaults role to user", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/users",
			`{"username": "plain", "email": "plain@example.com"}`, nil)
		w := executeHandler(t, handler.CreateUser, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[UserAPIResponse](t, w)
		if resp.Role != "user" {
			t.Errorf("expected role user, got %q", resp.Role)
		}
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/users",
			`{"username": "boss", "email": "boss@example.com", "role": "owner"}`, nil)
		w := executeHandler(t, handler.CreateUser, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/users",
			`{"username": "mod", "email": "mod2@example.com"}`, nil)
		w := executeHandler(t, handler.CreateUser, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestGetUserByUsername(t *testing.T) {
	db, handler := testSetup(t)
	createTestUser(t, db, "alice", model.RoleUser)

	t.Run("returns the user", func(t *testing.T) {
		req := newGetRequest(t, "/v1/users/alice", map[string]string{"username": "alice"})
		w := executeHandler(t, handler.GetUserByUsername, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[UserAPIResponse](t, w)
		if resp.Username != "alice" {
			t.Errorf("expected username alice, got %q", resp.Username)
		}
	})

	t.Run("returns 404 for unknown username", func(t *testing.T) {
		req := newGetRequest(t, "/v1/users/nobody", map[string]string{"username": "nobody"})
		w := executeHandler(t, handler.GetUserByUsername, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", w.Code)
		}
	})
}

func TestUpdateUserByUsername(t *testing.T) {
	db, handler := testSetup(t)
	createTestUser(t, db, "alice", model.RoleUser)

	t.Run("admin can change role", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPatch, "/v1/users/alice",
			`{"role": "moderator", "bio": "promoted"}`, map[string]string{"username": "alice"})
		w := executeHandler(t, handler.UpdateUserByUsername, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[UserAPIResponse](t, w)
		if resp.Role != "moderator" || resp.Bio != "promoted" {
			t.Errorf("unexpected user: %+v", resp)
		}
	})

	t.Run("rejects taken email", func(t *testing.T) {
		createTestUser(t, db, "bob", model.RoleUser)

		req := newJSONRequest(t, http.MethodPatch, "/v1/users/alice",
			`{"email": "bob@example.com"}`, map[string]string{"username": "alice"})
		w := executeHandler(t, handler.UpdateUserByUsername, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestDeleteUserByUsername(t *testing.T) {
	db, handler := testSetup(t)
	user := createTestUser(t, db, "alice", model.RoleUser)
	title := createTestTitle(t, db, "The Movie", 1994, nil)
	createTestReview(t, db, title.ID, user.ID, 7)

	req := newDeleteRequest(t, "/v1/users/alice", map[string]string{"username": "alice"})
	w := executeHandler(t, handler.DeleteUserByUsername, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
	}

	// The user's reviews cascade
	var reviews int
	if err := db.QueryRow(`SELECT COUNT(*) FROM reviews`).Scan(&reviews); err != nil {
		t.Fatalf("failed to count reviews: %v", err)
	}
	if reviews != 0 {
		t.Errorf("expected reviews to cascade, got %d", reviews)
	}
}

func TestMe(t *testing.T) {
	db, handler := testSetup(t)
	user := createTestUser(t, db, "alice", model.RoleUser)

	t.Run("requires authentication", func(t *testing.T) {
		w := executeHandler(t, handler.Me, newGetRequest(t, "/v1/users/me", nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})

	t.Run("returns own profile", func(t *testing.T) {
		req := requestWithUser(newGetRequest(t, "/v1/users/me", nil), user)
		w := executeHandler(t, handler.Me, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[UserAPIResponse](t, w)
		if resp.Username != "alice" {
			t.Errorf("expected username alice, got %q", resp.Username)
		}
	})
}

func TestUpdateMe(t *testing.T) {
	db, handler := testSetup(t)
	user := createTestUser(t, db, "alice", model.RoleUser)

	t.Run("updates profile fields", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPatch, "/v1/users/me",
			`{"first_name": "Alice", "bio": "reader"}`, nil)
		w := executeHandler(t, handler.UpdateMe, requestWithUser(req, user))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[UserAPIResponse](t, w)
		if resp.FirstName != "Alice" || resp.Bio != "reader" {
			t.Errorf("unexpected user: %+v", resp)
		}
	})

	t.Run("ignores role changes", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPatch, "/v1/users/me",
			`{"role": "admin"}`, nil)
		w := executeHandler(t, handler.UpdateMe, requestWithUser(req, user))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := unmarshalData[UserAPIResponse](t, w)
		if resp.Role != "user" {
			t.Errorf("self update must not escalate role, got %q", resp.Role)
		}

		var role string
		if err := db.QueryRow(`SELECT role FROM users WHERE id = ?`, user.ID).Scan(&role); err != nil {
			t.Fatalf("failed to read role: %v", err)
		}
		if role != "user" {
			t.Errorf("stored role changed to %q", role)
		}
	})
}
