// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/Legyan/yamdb-final/internal/auth"
	"github.com/Legyan/yamdb-final/internal/model"
)

func TestSignup(t *testing.T) {
	db, handler := testSetup(t)

	t.Run("registers a new user", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/auth/signup",
			`{"email": "alice@example.com", "username": "alice"}`, nil)
		w := executeHandler(t, handler.Signup, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		resp := unmarshalData[SignupResponse](t, w)
		if resp.Username != "alice" || resp.Email != "alice@example.com" {
			t.Errorf("unexpected response: %+v", resp)
		}

		var hash string
		err := db.QueryRow(`SELECT confirmation_code_hash FROM users WHERE username = 'alice'`).Scan(&hash)
		if err != nil {
			t.Fatalf("failed to read confirmation code hash: %v", err)
		}
		if hash == "" {
			t.Error("expected a confirmation code hash to be stored")
		}
	})

	t.Run("re-issues code for the same identity pair", func(t *testing.T) {
		var before string
		if err := db.QueryRow(`SELECT confirmation_code_hash FROM users WHERE username = 'alice'`).Scan(&before); err != nil {
			t.Fatalf("failed to read hash: %v", err)
		}

		req := newJSONRequest(t, http.MethodPost, "/v1/auth/signup",
			`{"email": "alice@example.com", "username": "alice"}`, nil)
		w := executeHandler(t, handler.Signup, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var after string
		if err := db.QueryRow(`SELECT confirmation_code_hash FROM users WHERE username = 'alice'`).Scan(&after); err != nil {
			t.Fatalf("failed to read hash: %v", err)
		}
		if before == after {
			t.Error("expected the confirmation code hash to change on re-signup")
		}
	})

	t.Run("rejects username registered with another email", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/auth/signup",
			`{"email": "other@example.com", "username": "alice"}`, nil)
		w := executeHandler(t, handler.Signup, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects email registered with another username", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/auth/signup",
			`{"email": "alice@example.com", "username": "alice2"}`, nil)
		w := executeHandler(t, handler.Signup, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects reserved username", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/auth/signup",
			`{"email": "me@example.com", "username": "me"}`, nil)
		w := executeHandler(t, handler.Signup, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects invalid username characters", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/auth/signup",
			`{"email": "bad@example.com", "username": "bad name!"}`, nil)
		w := executeHandler(t, handler.Signup, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects missing email", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/auth/signup",
			`{"username": "noemail"}`, nil)
		w := executeHandler(t, handler.Signup, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestToken(t *testing.T) {
	db, handler := testSetup(t)
	user := createTestUser(t, db, "bob", model.RoleUser)

	code, err := auth.GenerateConfirmationCode()
	if err != nil {
		t.Fatalf("failed to generate code: %v", err)
	}
	hash, err := auth.HashConfirmationCode(code)
	if err != nil {
		t.Fatalf("failed to hash code: %v", err)
	}
	if _, err := db.Exec(`UPDATE users SET confirmation_code_hash = ? WHERE id = ?`, hash, user.ID); err != nil {
		t.Fatalf("failed to store hash: %v", err)
	}

	t.Run("returns 404 for unknown username", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/auth/token",
			`{"username": "nobody", "confirmation_code": "`+code+`"}`, nil)
		w := executeHandler(t, handler.Token, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", w.Code)
		}
	})

	t.Run("returns 400 for wrong confirmation code", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/auth/token",
			`{"username": "bob", "confirmation_code": "000000000000000000000000000000"}`, nil)
		w := executeHandler(t, handler.Token, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("returns 400 when no code was issued", func(t *testing.T) {
		createTestUser(t, db, "nocode", model.RoleUser)

		req := newJSONRequest(t, http.MethodPost, "/v1/auth/token",
			`{"username": "nocode", "confirmation_code": "`+code+`"}`, nil)
		w := executeHandler(t, handler.Token, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("issues a parsable token for the right code", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/v1/auth/token",
			`{"username": "bob", "confirmation_code": "`+code+`"}`, nil)
		w := executeHandler(t, handler.Token, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		resp := unmarshalData[TokenResponse](t, w)
		if resp.Token == "" {
			t.Fatal("expected a token in the response")
		}

		userID, err := handler.issuer.ParseToken(resp.Token)
		if err != nil {
			t.Fatalf("issued token does not parse: %v", err)
		}
		if userID != user.ID {
			t.Errorf("token subject = %d, want %d", userID, user.ID)
		}
	})
}
