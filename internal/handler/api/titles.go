// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Legyan/yamdb-final/internal/model"
	"github.com/Legyan/yamdb-final/internal/store"
	"github.com/Legyan/yamdb-final/internal/util"
)

// TitleAPIResponse represents a title in API responses. Rating is null
// until the title has at least one review.
type TitleAPIResponse struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Year        int64                 `json:"year"`
	Description string                `json:"description,omitempty"`
	Rating      *float64              `json:"rating"`
	Category    *TaxonomyAPIResponse  `json:"category"`
	Genres      []TaxonomyAPIResponse `json:"genre"`
}

// CreateTitleRequest represents the request body for creating a title.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int64    `json:"year"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category" validate:"required,max=50"`
	Genres      []string `json:"genre" validate:"required,min=1"`
}

// UpdateTitleRequest represents the request body for updating a title.
type UpdateTitleRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=256"`
	Year        *int64   `json:"year,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Genres      []string `json:"genre,omitempty"`
}

// titleToResponse converts a title row and its genres to the API shape.
func titleToResponse(t store.TitleRow, genres []store.Genre) TitleAPIResponse {
	resp := TitleAPIResponse{
		ID:     t.ID,
		Name:   t.Name,
		Year:   t.Year,
		Genres: make([]TaxonomyAPIResponse, 0, len(genres)),
	}
	if t.Description.Valid {
		resp.Description = t.Description.String
	}
	if t.Rating.Valid {
		resp.Rating = &t.Rating.Float64
	}
	if t.CategorySlug.Valid {
		resp.Category = &TaxonomyAPIResponse{
			Name: t.CategoryName.String,
			Slug: t.CategorySlug.String,
		}
	}
	for _, g := range genres {
		resp.Genres = append(resp.Genres, genreToResponse(g))
	}
	return resp
}

// resolveGenres maps genre slugs to stored genres, rejecting unknown slugs.
// Returns the genres and true, or writes an error response and returns false.
func (h *Handler) resolveGenres(ctx context.Context, w http.ResponseWriter, slugs []string) ([]store.Genre, bool) {
	genres := make([]store.Genre, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true

		genre, err := h.queries.GetGenreBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				WriteValidationError(w, map[string]string{"genre": "Unknown genre slug: " + slug})
			} else {
				WriteInternalError(w, "Failed to resolve genres")
			}
			return nil, false
		}
		genres = append(genres, genre)
	}
	return genres, true
}

// resolveCategory maps a category slug to its stored row.
// Returns the category and true, or writes an error response and returns false.
func (h *Handler) resolveCategory(ctx context.Context, w http.ResponseWriter, slug string) (store.Category, bool) {
	category, err := h.queries.GetCategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteValidationError(w, map[string]string{"category": "Unknown category slug: " + slug})
		} else {
			WriteInternalError(w, "Failed to resolve category")
		}
		return store.Category{}, false
	}
	return category, true
}

// ListTitles handles GET /v1/titles
// Public: filterable by category slug, genre slug, name substring and year.
func (h *Handler) ListTitles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := ParseLimitOffset(r)
	params := store.ListTitlesParams{
		CategorySlug: r.URL.Query().Get("category"),
		GenreSlug:    r.URL.Query().Get("genre"),
		Name:         r.URL.Query().Get("name"),
		Year:         util.ParseNullInt64(r.URL.Query().Get("year")),
		Limit:        int64(limit),
		Offset:       int64(offset),
	}

	titles, err := h.queries.ListTitles(ctx, params)
	if err != nil {
		WriteInternalError(w, "Failed to list titles")
		return
	}

	total, err := h.queries.CountTitles(ctx, params)
	if err != nil {
		WriteInternalError(w, "Failed to count titles")
		return
	}

	responses := make([]TitleAPIResponse, 0, len(titles))
	for _, t := range titles {
		genres, err := h.queries.ListGenresForTitle(ctx, t.ID)
		if err != nil {
			WriteInternalError(w, "Failed to list title genres")
			return
		}
		responses = append(responses, titleToResponse(t, genres))
	}

	WriteSuccess(w, responses, &Meta{Total: total, Limit: limit, Offset: offset})
}

// GetTitle handles GET /v1/titles/{titleID}
// Public.
func (h *Handler) GetTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	title, ok := h.requireTitle(w, r)
	if !ok {
		return
	}

	genres, err := h.queries.ListGenresForTitle(ctx, title.ID)
	if err != nil {
		WriteInternalError(w, "Failed to list title genres")
		return
	}

	WriteSuccess(w, titleToResponse(title, genres), nil)
}

// CreateTitle handles POST /v1/titles
// Admin only.
func (h *Handler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}
	if err := model.ValidateYear(req.Year); err != nil {
		WriteValidationError(w, map[string]string{"year": err.Error()})
		return
	}

	category, ok := h.resolveCategory(ctx, w, req.Category)
	if !ok {
		return
	}
	genres, ok := h.resolveGenres(ctx, w, req.Genres)
	if !ok {
		return
	}

	now := time.Now()
	title, err := h.queries.CreateTitle(ctx, store.CreateTitleParams{
		Name:        req.Name,
		Year:        req.Year,
		Description: util.NullStringFromValue(req.Description),
		CategoryID:  util.NullInt64FromValue(category.ID),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create title")
		return
	}

	for _, g := range genres {
		if err := h.queries.AddTitleGenre(ctx, store.AddTitleGenreParams{
			TitleID: title.ID,
			GenreID: g.ID,
		}); err != nil {
			WriteInternalError(w, "Failed to link title genres")
			return
		}
	}

	WriteCreated(w, titleToResponse(title, genres))
}

// UpdateTitle handles PATCH /v1/titles/{titleID}
// Admin only: partial update. Sending a genre list replaces all links.
func (h *Handler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	existing, ok := h.requireTitle(w, r)
	if !ok {
		return
	}

	var req UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}

	params := store.UpdateTitleParams{
		ID:          existing.ID,
		Name:        existing.Name,
		Year:        existing.Year,
		Description: existing.Description,
		CategoryID:  existing.CategoryID,
		UpdatedAt:   time.Now(),
	}

	if req.Name != nil && *req.Name != "" {
		params.Name = *req.Name
	}
	if req.Year != nil {
		if err := model.ValidateYear(*req.Year); err != nil {
			WriteValidationError(w, map[string]string{"year": err.Error()})
			return
		}
		params.Year = *req.Year
	}
	if req.Description != nil {
		params.Description = util.NullStringFromValue(*req.Description)
	}
	if req.Category != nil {
		category, ok := h.resolveCategory(ctx, w, *req.Category)
		if !ok {
			return
		}
		params.CategoryID = util.NullInt64FromValue(category.ID)
	}

	var newGenres []store.Genre
	if req.Genres != nil {
		if len(req.Genres) == 0 {
			WriteValidationError(w, map[string]string{"genre": "At least one genre is required"})
			return
		}
		genres, ok := h.resolveGenres(ctx, w, req.Genres)
		if !ok {
			return
		}
		newGenres = genres
	}

	title, err := h.queries.UpdateTitle(ctx, params)
	if err != nil {
		WriteInternalError(w, "Failed to update title")
		return
	}

	if newGenres != nil {
		if err := h.queries.ClearTitleGenres(ctx, title.ID); err != nil {
			WriteInternalError(w, "Failed to update title genres")
			return
		}
		for _, g := range newGenres {
			if err := h.queries.AddTitleGenre(ctx, store.AddTitleGenreParams{
				TitleID: title.ID,
				GenreID: g.ID,
			}); err != nil {
				WriteInternalError(w, "Failed to update title genres")
				return
			}
		}
	}

	genres, err := h.queries.ListGenresForTitle(ctx, title.ID)
	if err != nil {
		WriteInternalError(w, "Failed to list title genres")
		return
	}

	WriteSuccess(w, titleToResponse(title, genres), nil)
}

// DeleteTitle handles DELETE /v1/titles/{titleID}
// Admin only: reviews and their comments cascade.
func (h *Handler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	title, ok := h.requireTitle(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteTitle(r.Context(), title.ID); err != nil {
		WriteInternalError(w, "Failed to delete title")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireTitle parses the title ID from the URL and fetches the title.
// Returns the title and true, or writes an error response and returns false.
func (h *Handler) requireTitle(w http.ResponseWriter, r *http.Request) (store.TitleRow, bool) {
	id, err := ParseIDParam(r, "titleID")
	if err != nil {
		WriteBadRequest(w, "Invalid title ID", nil)
		return store.TitleRow{}, false
	}

	title, err := h.queries.GetTitleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Title not found")
		} else {
			WriteInternalError(w, "Failed to retrieve title")
		}
		return store.TitleRow{}, false
	}
	return title, true
}
