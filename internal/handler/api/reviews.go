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
	"github.com/Legyan/yamdb-final/internal/model"
	"github.com/Legyan/yamdb-final/internal/store"
)

// ReviewAPIResponse represents a review in API responses.
type ReviewAPIResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int64     `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// CreateReviewRequest represents the request body for creating a review.
type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score int64  `json:"score" validate:"required"`
}

// UpdateReviewRequest represents the request body for updating a review.
type UpdateReviewRequest struct {
	Text  *string `json:"text,omitempty"`
	Score *int64  `json:"score,omitempty"`
}

func reviewToResponse(r store.ReviewRow) ReviewAPIResponse {
	return ReviewAPIResponse{
		ID:      r.ID,
		Author:  r.AuthorUsername,
		Text:    r.Text,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

// ListReviews handles GET /v1/titles/{titleID}/reviews
// Public.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	title, ok := h.requireTitle(w, r)
	if !ok {
		return
	}

	limit, offset := ParseLimitOffset(r)
	reviews, err := h.queries.ListReviewsForTitle(ctx, store.ListReviewsForTitleParams{
		TitleID: title.ID,
		Limit:   int64(limit),
		Offset:  int64(offset),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list reviews")
		return
	}

	total, err := h.queries.CountReviewsForTitle(ctx, title.ID)
	if err != nil {
		WriteInternalError(w, "Failed to count reviews")
		return
	}

	responses := make([]ReviewAPIResponse, 0, len(reviews))
	for _, rev := range reviews {
		responses = append(responses, reviewToResponse(rev))
	}

	WriteSuccess(w, responses, &Meta{Total: total, Limit: limit, Offset: offset})
}

// GetReview handles GET /v1/titles/{titleID}/reviews/{reviewID}
// Public.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	_, review, ok := h.requireTitleReview(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, reviewToResponse(review), nil)
}

// CreateReview handles POST /v1/titles/{titleID}/reviews
// Authenticated: one review per author per title.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	title, ok := h.requireTitle(w, r)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}
	if err := model.ValidateScore(req.Score); err != nil {
		WriteValidationError(w, map[string]string{"score": err.Error()})
		return
	}

	exists, err := h.queries.ReviewExistsForAuthor(ctx, store.ReviewExistsForAuthorParams{
		TitleID:  title.ID,
		AuthorID: user.ID,
	})
	if err != nil {
		WriteInternalError(w, "Failed to check existing review")
		return
	}
	if exists != 0 {
		WriteConflict(w, "You have already reviewed this title")
		return
	}

	review, err := h.queries.CreateReview(ctx, store.CreateReviewParams{
		TitleID:  title.ID,
		AuthorID: user.ID,
		Text:     req.Text,
		Score:    req.Score,
		PubDate:  time.Now(),
	})
	if err != nil {
		// The unique constraint catches a concurrent duplicate
		WriteConflict(w, "You have already reviewed this title")
		return
	}

	WriteCreated(w, reviewToResponse(review))
}

// UpdateReview handles PATCH /v1/titles/{titleID}/reviews/{reviewID}
// Author, moderator or admin.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	_, existing, ok := h.requireTitleReview(w, r)
	if !ok {
		return
	}
	if existing.AuthorID != user.ID && !user.CanModerate() {
		WriteForbidden(w, "You may only edit your own reviews")
		return
	}

	var req UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	params := store.UpdateReviewParams{
		ID:    existing.ID,
		Text:  existing.Text,
		Score: existing.Score,
	}
	if req.Text != nil && *req.Text != "" {
		params.Text = *req.Text
	}
	if req.Score != nil {
		if err := model.ValidateScore(*req.Score); err != nil {
			WriteValidationError(w, map[string]string{"score": err.Error()})
			return
		}
		params.Score = *req.Score
	}

	review, err := h.queries.UpdateReview(ctx, params)
	if err != nil {
		WriteInternalError(w, "Failed to update review")
		return
	}

	WriteSuccess(w, reviewToResponse(review), nil)
}

// DeleteReview handles DELETE /v1/titles/{titleID}/reviews/{reviewID}
// Author, moderator or admin: comments cascade.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	_, review, ok := h.requireTitleReview(w, r)
	if !ok {
		return
	}
	if review.AuthorID != user.ID && !user.CanModerate() {
		WriteForbidden(w, "You may only delete your own reviews")
		return
	}

	if err := h.queries.DeleteReview(r.Context(), review.ID); err != nil {
		WriteInternalError(w, "Failed to delete review")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireTitleReview fetches the title and the review named in the URL,
// verifying the review belongs to the title.
// Returns both and true, or writes an error response and returns false.
func (h *Handler) requireTitleReview(w http.ResponseWriter, r *http.Request) (store.TitleRow, store.ReviewRow, bool) {
	title, ok := h.requireTitle(w, r)
	if !ok {
		return store.TitleRow{}, store.ReviewRow{}, false
	}

	reviewID, err := ParseIDParam(r, "reviewID")
	if err != nil {
		WriteBadRequest(w, "Invalid review ID", nil)
		return store.TitleRow{}, store.ReviewRow{}, false
	}

	review, err := h.queries.GetReviewForTitle(r.Context(), store.GetReviewForTitleParams{
		ID:      reviewID,
		TitleID: title.ID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Review not found")
		} else {
			WriteInternalError(w, "Failed to retrieve review")
		}
		return store.TitleRow{}, store.ReviewRow{}, false
	}
	return title, review, true
}
