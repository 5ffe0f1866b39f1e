// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Legyan/yamdb-final/internal/middleware"
	"github.com/Legyan/yamdb-final/internal/model"
	"github.com/Legyan/yamdb-final/internal/store"
)

// UserAPIResponse represents a user in API responses.
type UserAPIResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Username  string  `json:"username" validate:"required,max=150"`
	Email     string  `json:"email" validate:"required,email,max=254"`
	FirstName string  `json:"first_name" validate:"max=150"`
	LastName  string  `json:"last_name" validate:"max=150"`
	Bio       string  `json:"bio"`
	Role      *string `json:"role,omitempty"`
}

// UpdateUserRequest represents the request body for updating a user.
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Bio       *string `json:"bio,omitempty"`
	Role      *string `json:"role,omitempty"`
}

func userToResponse(u store.User) UserAPIResponse {
	return UserAPIResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

// ListUsers handles GET /v1/users
// Admin only: returns users, optionally filtered by a username substring.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := ParseLimitOffset(r)
	search := r.URL.Query().Get("search")

	users, err := h.queries.ListUsers(ctx, store.ListUsersParams{
		Search: search,
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list users")
		return
	}

	total, err := h.queries.CountUsers(ctx, search)
	if err != nil {
		WriteInternalError(w, "Failed to count users")
		return
	}

	responses := make([]UserAPIResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, userToResponse(u))
	}

	WriteSuccess(w, responses, &Meta{Total: total, Limit: limit, Offset: offset})
}

// CreateUser handles POST /v1/users
// Admin only: creates a user directly, optionally with a non-default role.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
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

	role := model.RoleUser
	if req.Role != nil {
		parsed, err := model.ParseRole(*req.Role)
		if err != nil {
			WriteValidationError(w, map[string]string{"role": "Unknown role"})
			return
		}
		role = parsed
	}

	usernameTaken, err := h.queries.UserExistsByUsername(ctx, req.Username)
	if err != nil {
		WriteInternalError(w, "Failed to check username")
		return
	}
	if usernameTaken != 0 {
		WriteValidationError(w, map[string]string{"username": "Username already exists"})
		return
	}
	emailTaken, err := h.queries.UserExistsByEmail(ctx, req.Email)
	if err != nil {
		WriteInternalError(w, "Failed to check email")
		return
	}
	if emailTaken != 0 {
		WriteValidationError(w, map[string]string{"email": "Email already exists"})
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(ctx, store.CreateUserParams{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role.String(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create user")
		return
	}
	slog.Info("user created by admin", "category", "user", "username", user.Username, "role", user.Role)

	WriteCreated(w, userToResponse(user))
}

// GetUserByUsername handles GET /v1/users/{username}
// Admin only.
func (h *Handler) GetUserByUsername(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUserByUsername(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, userToResponse(user), nil)
}

// UpdateUserByUsername handles PATCH /v1/users/{username}
// Admin only: partial update, including role changes.
func (h *Handler) UpdateUserByUsername(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.requireUserByUsername(w, r)
	if !ok {
		return
	}
	h.applyUserUpdate(w, r, existing, true)
}

// DeleteUserByUsername handles DELETE /v1/users/{username}
// Admin only: the user's reviews and comments cascade.
func (h *Handler) DeleteUserByUsername(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUserByUsername(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteUser(r.Context(), user.ID); err != nil {
		WriteInternalError(w, "Failed to delete user")
		return
	}
	slog.Info("user deleted", "category", "user", "username", user.Username)

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /v1/users/me
// Authenticated: returns the caller's own profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	WriteSuccess(w, userToResponse(*user), nil)
}

// UpdateMe handles PATCH /v1/users/me
// Authenticated: partial self update. Role changes are ignored so users
// cannot escalate their own privileges.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	h.applyUserUpdate(w, r, *user, false)
}

// applyUserUpdate decodes an UpdateUserRequest and persists it onto the
// given user. allowRoleChange gates the role field.
func (h *Handler) applyUserUpdate(w http.ResponseWriter, r *http.Request, existing store.User, allowRoleChange bool) {
	ctx := r.Context()

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}

	params := store.UpdateUserParams{
		ID:        existing.ID,
		Username:  existing.Username,
		Email:     existing.Email,
		FirstName: existing.FirstName,
		LastName:  existing.LastName,
		Bio:       existing.Bio,
		Role:      existing.Role,
		UpdatedAt: time.Now(),
	}

	if req.Email != nil && *req.Email != existing.Email {
		emailTaken, err := h.queries.UserExistsByEmail(ctx, *req.Email)
		if err != nil {
			WriteInternalError(w, "Failed to check email")
			return
		}
		if emailTaken != 0 {
			WriteValidationError(w, map[string]string{"email": "Email already exists"})
			return
		}
		params.Email = *req.Email
	}
	if req.FirstName != nil {
		params.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		params.LastName = *req.LastName
	}
	if req.Bio != nil {
		params.Bio = *req.Bio
	}
	if req.Role != nil && allowRoleChange {
		parsed, err := model.ParseRole(*req.Role)
		if err != nil {
			WriteValidationError(w, map[string]string{"role": "Unknown role"})
			return
		}
		params.Role = parsed.String()
	}

	user, err := h.queries.UpdateUser(ctx, params)
	if err != nil {
		WriteInternalError(w, "Failed to update user")
		return
	}

	WriteSuccess(w, userToResponse(user), nil)
}

// requireUserByUsername fetches the user named in the URL.
// Returns the user and true, or writes an error response and returns false.
func (h *Handler) requireUserByUsername(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	username := chi.URLParam(r, "username")
	if username == "" {
		WriteBadRequest(w, "Invalid username", nil)
		return store.User{}, false
	}

	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found")
		} else {
			WriteInternalError(w, "Failed to retrieve user")
		}
		return store.User{}, false
	}
	return user, true
}
