// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Legyan/yamdb-final/internal/auth"
	"github.com/Legyan/yamdb-final/internal/model"
	"github.com/Legyan/yamdb-final/internal/notify"
	"github.com/Legyan/yamdb-final/internal/store"
)

// SignupRequest is the request body for POST /v1/auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150"`
}

// SignupResponse echoes back the registered identity.
type SignupResponse struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// TokenRequest is the request body for POST /v1/auth/token.
type TokenRequest struct {
	Username         string `json:"username" validate:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" validate:"required,max=30"`
}

// TokenResponse carries the issued access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Signup handles POST /v1/auth/signup
// Public: registers a user, or re-issues a confirmation code for an
// existing (username, email) pair.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}
	if model.IsReservedUsername(req.Username) {
		WriteValidationError(w, map[string]string{"username": "This username is reserved"})
		return
	}
	if !model.IsValidUsername(req.Username) {
		WriteValidationError(w, map[string]string{"username": "Username may contain only letters, digits and .@+- characters"})
		return
	}

	existing, err := h.queries.GetUserByUsername(ctx, req.Username)
	switch {
	case err == nil:
		// Same identity pair: regenerate the code. Any mismatch is a
		// conflict with an existing account.
		if existing.Email != req.Email {
			WriteValidationError(w, map[string]string{"email": "Username is already registered with a different email"})
			return
		}
		if ok := h.issueConfirmationCode(ctx, w, existing); !ok {
			return
		}
		WriteSuccess(w, SignupResponse{Email: req.Email, Username: req.Username}, nil)
		return
	case !errors.Is(err, sql.ErrNoRows):
		WriteInternalError(w, "Failed to look up user")
		return
	}

	emailTaken, err := h.queries.UserExistsByEmail(ctx, req.Email)
	if err != nil {
		WriteInternalError(w, "Failed to look up email")
		return
	}
	if emailTaken != 0 {
		WriteValidationError(w, map[string]string{"email": "Email is already registered with a different username"})
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(ctx, store.CreateUserParams{
		Username:  req.Username,
		Email:     req.Email,
		Role:      model.RoleUser.String(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create user")
		return
	}
	slog.Info("user signed up", "category", "auth", "username", user.Username)

	if ok := h.issueConfirmationCode(ctx, w, user); !ok {
		return
	}
	WriteSuccess(w, SignupResponse{Email: req.Email, Username: req.Username}, nil)
}

// issueConfirmationCode generates, stores and dispatches a fresh
// confirmation code. On failure an error response has been written.
func (h *Handler) issueConfirmationCode(ctx context.Context, w http.ResponseWriter, user store.User) bool {
	code, err := auth.GenerateConfirmationCode()
	if err != nil {
		WriteInternalError(w, "Failed to generate confirmation code")
		return false
	}
	hash, err := auth.HashConfirmationCode(code)
	if err != nil {
		WriteInternalError(w, "Failed to store confirmation code")
		return false
	}
	err = h.queries.UpdateUserConfirmationCode(ctx, store.UpdateUserConfirmationCodeParams{
		ID:                   user.ID,
		ConfirmationCodeHash: sql.NullString{String: hash, Valid: true},
		UpdatedAt:            time.Now(),
	})
	if err != nil {
		WriteInternalError(w, "Failed to store confirmation code")
		return false
	}

	h.notifier.SendConfirmationCode(notify.ConfirmationMessage{
		Email:            user.Email,
		Username:         user.Username,
		ConfirmationCode: code,
	})
	return true
}

// Token handles POST /v1/auth/token
// Public: exchanges a username and confirmation code for a JWT.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}

	user, err := h.queries.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found")
		} else {
			WriteInternalError(w, "Failed to look up user")
		}
		return
	}

	if !user.ConfirmationCodeHash.Valid {
		WriteBadRequest(w, "No confirmation code issued for this user", nil)
		return
	}
	match, err := auth.VerifyConfirmationCode(req.ConfirmationCode, user.ConfirmationCodeHash.String)
	if err != nil {
		WriteInternalError(w, "Failed to verify confirmation code")
		return
	}
	if !match {
		slog.Warn("token request with invalid confirmation code",
			"category", "auth", "username", user.Username)
		WriteBadRequest(w, "Invalid confirmation code", nil)
		return
	}

	token, err := h.issuer.IssueToken(user.ID, user.Username)
	if err != nil {
		WriteInternalError(w, "Failed to issue token")
		return
	}

	WriteSuccess(w, TokenResponse{Token: token}, nil)
}
