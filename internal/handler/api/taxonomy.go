// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Legyan/yamdb-final/internal/model"
	"github.com/Legyan/yamdb-final/internal/store"
	"github.com/Legyan/yamdb-final/internal/util"
)

// TaxonomyAPIResponse represents a category or genre in API responses.
type TaxonomyAPIResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CreateTaxonomyRequest represents the request body for creating a category
// or genre. An omitted slug is derived from the name.
type CreateTaxonomyRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"omitempty,max=50"`
}

func categoryToResponse(c store.Category) TaxonomyAPIResponse {
	return TaxonomyAPIResponse{Name: c.Name, Slug: c.Slug}
}

func genreToResponse(g store.Genre) TaxonomyAPIResponse {
	return TaxonomyAPIResponse{Name: g.Name, Slug: g.Slug}
}

// resolveTaxonomySlug validates or derives the slug for a create request.
// Returns the slug and true, or writes an error response and returns false.
func resolveTaxonomySlug(w http.ResponseWriter, req CreateTaxonomyRequest) (string, bool) {
	slug := req.Slug
	if slug == "" {
		slug = util.Slugify(req.Name)
	}
	if slug == "" || len(slug) > model.MaxSlugLen || !util.IsValidSlug(slug) {
		WriteValidationError(w, map[string]string{"slug": "Slug must contain only lowercase letters, digits and hyphens"})
		return "", false
	}
	return slug, true
}

// ============================================================================
// Category Endpoints
// ============================================================================

// ListCategories handles GET /v1/categories
// Public: returns categories, optionally filtered by a name substring.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := ParseLimitOffset(r)
	search := r.URL.Query().Get("search")

	categories, err := h.queries.ListCategories(ctx, store.ListTaxonomyParams{
		Search: search,
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list categories")
		return
	}

	total, err := h.queries.CountCategories(ctx, search)
	if err != nil {
		WriteInternalError(w, "Failed to count categories")
		return
	}

	responses := make([]TaxonomyAPIResponse, 0, len(categories))
	for _, c := range categories {
		responses = append(responses, categoryToResponse(c))
	}

	WriteSuccess(w, responses, &Meta{Total: total, Limit: limit, Offset: offset})
}

// CreateCategory handles POST /v1/categories
// Admin only.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTaxonomyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}
	slug, ok := resolveTaxonomySlug(w, req)
	if !ok {
		return
	}

	slugTaken, err := h.queries.CategorySlugExists(ctx, slug)
	if err != nil {
		WriteInternalError(w, "Failed to check slug")
		return
	}
	if slugTaken != 0 {
		WriteValidationError(w, map[string]string{"slug": "Slug already exists"})
		return
	}
	nameTaken, err := h.queries.CategoryNameExists(ctx, req.Name)
	if err != nil {
		WriteInternalError(w, "Failed to check name")
		return
	}
	if nameTaken != 0 {
		WriteValidationError(w, map[string]string{"name": "Name already exists"})
		return
	}

	now := time.Now()
	category, err := h.queries.CreateCategory(ctx, store.CreateCategoryParams{
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create category")
		return
	}

	WriteCreated(w, categoryToResponse(category))
}

// DeleteCategory handles DELETE /v1/categories/{slug}
// Admin only: titles in the category keep their rows with a nulled category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slug := chi.URLParam(r, "slug")
	category, err := h.queries.GetCategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Category not found")
		} else {
			WriteInternalError(w, "Failed to retrieve category")
		}
		return
	}

	if err := h.queries.DeleteCategory(ctx, category.ID); err != nil {
		WriteInternalError(w, "Failed to delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Genre Endpoints
// ============================================================================

// ListGenres handles GET /v1/genres
// Public: returns genres, optionally filtered by a name substring.
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := ParseLimitOffset(r)
	search := r.URL.Query().Get("search")

	genres, err := h.queries.ListGenres(ctx, store.ListTaxonomyParams{
		Search: search,
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list genres")
		return
	}

	total, err := h.queries.CountGenres(ctx, search)
	if err != nil {
		WriteInternalError(w, "Failed to count genres")
		return
	}

	responses := make([]TaxonomyAPIResponse, 0, len(genres))
	for _, g := range genres {
		responses = append(responses, genreToResponse(g))
	}

	WriteSuccess(w, responses, &Meta{Total: total, Limit: limit, Offset: offset})
}

// CreateGenre handles POST /v1/genres
// Admin only.
func (h *Handler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTaxonomyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, validationDetails(err))
		return
	}
	slug, ok := resolveTaxonomySlug(w, req)
	if !ok {
		return
	}

	slugTaken, err := h.queries.GenreSlugExists(ctx, slug)
	if err != nil {
		WriteInternalError(w, "Failed to check slug")
		return
	}
	if slugTaken != 0 {
		WriteValidationError(w, map[string]string{"slug": "Slug already exists"})
		return
	}
	nameTaken, err := h.queries.GenreNameExists(ctx, req.Name)
	if err != nil {
		WriteInternalError(w, "Failed to check name")
		return
	}
	if nameTaken != 0 {
		WriteValidationError(w, map[string]string{"name": "Name already exists"})
		return
	}

	now := time.Now()
	genre, err := h.queries.CreateGenre(ctx, store.CreateGenreParams{
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create genre")
		return
	}

	WriteCreated(w, genreToResponse(genre))
}

// DeleteGenre handles DELETE /v1/genres/{slug}
// Admin only: titles keep their other genre links.
func (h *Handler) DeleteGenre(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slug := chi.URLParam(r, "slug")
	genre, err := h.queries.GetGenreBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Genre not found")
		} else {
			WriteInternalError(w, "Failed to retrieve genre")
		}
		return
	}

	if err := h.queries.DeleteGenre(ctx, genre.ID); err != nil {
		WriteInternalError(w, "Failed to delete genre")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
