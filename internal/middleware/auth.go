// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, rate limiting, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Legyan/yamdb-final/internal/auth"
	"github.com/Legyan/yamdb-final/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser is the context key for the authenticated user.
const ContextKeyUser ContextKey = "user"

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// validateToken parses the Authorization header and resolves the bearer
// token to a user. Returns the user if valid, or nil if not.
// If required is true and validation fails, writes an error response and
// returns (nil, true). The second return value indicates if an error
// response was written.
func validateToken(w http.ResponseWriter, r *http.Request, issuer *auth.TokenIssuer, queries *store.Queries, required bool) (*store.User, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", nil)
			return nil, true
		}
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format. Use: Bearer <token>", nil)
			return nil, true
		}
		return nil, false
	}

	rawToken := parts[1]
	if rawToken == "" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Token is empty", nil)
			return nil, true
		}
		return nil, false
	}

	userID, err := issuer.ParseToken(rawToken)
	if err != nil {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
			return nil, true
		}
		return nil, false
	}

	user, err := queries.GetUserByID(r.Context(), userID)
	if err != nil {
		if required {
			if errors.Is(err, sql.ErrNoRows) {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Token refers to an unknown user", nil)
			} else {
				slog.Error("failed to load token user", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to validate token", nil)
			}
			return nil, true
		}
		return nil, false
	}

	return &user, false
}

// RequireAuth creates middleware that requires a valid bearer token.
// The authenticated user is loaded into the request context.
func RequireAuth(issuer *auth.TokenIssuer, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, errorWritten := validateToken(w, r, issuer, queries, true)
			if errorWritten {
				return
			}
			addUserToContext(next, w, r, *user)
		})
	}
}

// OptionalAuth creates middleware that loads the user into context when a
// valid bearer token is provided, but never rejects the request. Use this
// for routes where reads are public and writes check permissions per
// handler.
func OptionalAuth(issuer *auth.TokenIssuer, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := validateToken(w, r, issuer, queries, false)
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}
			addUserToContext(next, w, r, *user)
		})
	}
}

// RequireAdmin creates middleware that rejects non-administrators with 403.
// This should be used after RequireAuth middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		if user == nil {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}
		if !user.IsAdmin() {
			WriteAPIError(w, http.StatusForbidden, "forbidden", "Administrator access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// addUserToContext adds the user to context and serves the next handler.
func addUserToContext(next http.Handler, w http.ResponseWriter, r *http.Request, user store.User) {
	ctx := context.WithValue(r.Context(), ContextKeyUser, user)
	next.ServeHTTP(w, r.WithContext(ctx))
}
