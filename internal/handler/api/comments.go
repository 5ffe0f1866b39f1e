// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Legyan/yamdb-final/internal/middleware"
	"github.com/Legyan/yamdb-final/internal/store"
)

// CommentAPIResponse represents a comment in API responses.
type CommentAPIResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
}

// CommentRequest represents the request body for creating or updating a
// comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

func commentToResponse(c store.CommentRow) CommentAPIResponse {
	return CommentAPIResponse{
		ID:      c.ID,
		Author:  c.AuthorUsername,
		Text:    c.Text,
		PubDate: c.PubDate,
	}
}

// ListComments handles GET /v1/titles/{titleID}/reviews/{reviewID}/comments
// Public.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, review, ok := h.requireTitleReview(w, r)
	if !ok {
		return
	}

	limit, offset := ParseLimitOffset(r)
	comments, err := h.queries.ListCommentsForReview(ctx, store.ListCommentsForReviewParams{
		ReviewID: review.ID,
		Limit:    int64(limit),
		Offset:   int64(offset),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list comments")
		return
	}

	total, err := h.queries.CountCommentsForReview(ctx, review.ID)
	if err != nil {
		WriteInternalError(w, "Failed to count comments")
		return
	}

	responses := make([]CommentAPIResponse, 0, len(comments))
	for _, c := range comments {
		responses = append(responses, commentToResponse(c))
	}

	WriteSuccess(w, responses, &Meta{Total: total, Limit: limit, Offset: offset})
}

// GetComment handles GET /v1/titles/{titleID}/reviews/{reviewID}/comments/{commentID}
// Public.
func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.requireReviewComment(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, commentToResponse(comment), nil)
}

// CreateComment handles POST /v1/titles/{titleID}/reviews/{reviewID}/comments
// Authenticated.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	_, review, ok := h.requireTitleReview(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}

	comment, err := h.queries.CreateComment(ctx, store.CreateCommentParams{
		ReviewID: review.ID,
		AuthorID: user.ID,
		Text:     req.Text,
		PubDate:  time.Now(),
	})
	if err != nil {
		WriteInternalError(w, "Failed to create comment")
		return
	}

	WriteCreated(w, commentToResponse(comment))
}

// UpdateComment handles PATCH /v1/titles/{titleID}/reviews/{reviewID}/comments/{commentID}
// Author, moderator or admin.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	existing, ok := h.requireReviewComment(w, r)
	if !ok {
		return
	}
	if existing.AuthorID != user.ID && !user.CanModerate() {
		WriteForbidden(w, "You may only edit your own comments")
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}

	comment, err := h.queries.UpdateComment(ctx, store.UpdateCommentParams{
		ID:   existing.ID,
		Text: req.Text,
	})
	if err != nil {
		WriteInternalError(w, "Failed to update comment")
		return
	}

	WriteSuccess(w, commentToResponse(comment), nil)
}

// DeleteComment handles DELETE /v1/titles/{titleID}/reviews/{reviewID}/comments/{commentID}
// Author, moderator or admin.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	comment, ok := h.requireReviewComment(w, r)
	if !ok {
		return
	}
	if comment.AuthorID != user.ID && !user.CanModerate() {
		WriteForbidden(w, "You may only delete your own comments")
		return
	}

	if err := h.queries.DeleteComment(r.Context(), comment.ID); err != nil {
		WriteInternalError(w, "Failed to delete comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireReviewComment fetches the comment named in the URL, verifying the
// whole title/review/comment chain.
// Returns the comment and true, or writes an error response and returns false.
func (h *Handler) requireReviewComment(w http.ResponseWriter, r *http.Request) (store.CommentRow, bool) {
	_, review, ok := h.requireTitleReview(w, r)
	if !ok {
		return store.CommentRow{}, false
	}

	commentID, err := ParseIDParam(r, "commentID")
	if err != nil {
		WriteBadRequest(w, "Invalid comment ID", nil)
		return store.CommentRow{}, false
	}

	comment, err := h.queries.GetCommentForReview(r.Context(), store.GetCommentForReviewParams{
		ID:       commentID,
		ReviewID: review.ID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Comment not found")
		} else {
			WriteInternalError(w, "Failed to retrieve comment")
		}
		return store.CommentRow{}, false
	}
	return comment, true
}
