// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

func scanCategory(row *sql.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanGenre(row *sql.Row) (Genre, error) {
	var g Genre
	err := row.Scan(&g.ID, &g.Name, &g.Slug, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// CreateCategoryParams holds the fields for CreateCategory.
type CreateCategoryParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateCategory inserts a category and returns the stored row.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (name, slug, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		arg.Name, arg.Slug, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Category{}, err
	}
	return q.GetCategoryByID(ctx, id)
}

// GetCategoryByID fetches a category by primary key.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM categories WHERE id = ?`, id))
}

// GetCategoryBySlug fetches a category by slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM categories WHERE slug = ?`, slug))
}

// CategorySlugExists returns 1 if a category with the given slug exists.
func (q *Queries) CategorySlugExists(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE slug = ?`, slug).Scan(&n)
	return n, err
}

// CategoryNameExists returns 1 if a category with the given name exists.
func (q *Queries) CategoryNameExists(ctx context.Context, name string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name = ?`, name).Scan(&n)
	return n, err
}

// ListTaxonomyParams holds the filters for category and genre listings.
type ListTaxonomyParams struct {
	Search string // name substring; empty matches all
	Limit  int64
	Offset int64
}

// ListCategories returns categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context, arg ListTaxonomyParams) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, slug, created_at, updated_at FROM categories
		WHERE (? = '' OR name LIKE '%' || ? || '%')
		ORDER BY name
		LIMIT ? OFFSET ?`,
		arg.Search, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountCategories returns the number of categories matching the search filter.
func (q *Queries) CountCategories(ctx context.Context, search string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories
		WHERE (? = '' OR name LIKE '%' || ? || '%')`,
		search, search).Scan(&n)
	return n, err
}

// DeleteCategory removes a category by primary key. Titles referencing it
// keep their rows with a nulled category.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// CreateGenreParams holds the fields for CreateGenre.
type CreateGenreParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateGenre inserts a genre and returns the stored row.
func (q *Queries) CreateGenre(ctx context.Context, arg CreateGenreParams) (Genre, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO genres (name, slug, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		arg.Name, arg.Slug, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Genre{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Genre{}, err
	}
	return q.GetGenreByID(ctx, id)
}

// GetGenreByID fetches a genre by primary key.
func (q *Queries) GetGenreByID(ctx context.Context, id int64) (Genre, error) {
	return scanGenre(q.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM genres WHERE id = ?`, id))
}

// GetGenreBySlug fetches a genre by slug.
func (q *Queries) GetGenreBySlug(ctx context.Context, slug string) (Genre, error) {
	return scanGenre(q.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM genres WHERE slug = ?`, slug))
}

// GenreSlugExists returns 1 if a genre with the given slug exists.
func (q *Queries) GenreSlugExists(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM genres WHERE slug = ?`, slug).Scan(&n)
	return n, err
}

// GenreNameExists returns 1 if a genre with the given name exists.
func (q *Queries) GenreNameExists(ctx context.Context, name string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM genres WHERE name = ?`, name).Scan(&n)
	return n, err
}

// ListGenres returns genres ordered by name.
func (q *Queries) ListGenres(ctx context.Context, arg ListTaxonomyParams) ([]Genre, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, slug, created_at, updated_at FROM genres
		WHERE (? = '' OR name LIKE '%' || ? || '%')
		ORDER BY name
		LIMIT ? OFFSET ?`,
		arg.Search, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var genres []Genre
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// CountGenres returns the number of genres matching the search filter.
func (q *Queries) CountGenres(ctx context.Context, search string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM genres
		WHERE (? = '' OR name LIKE '%' || ? || '%')`,
		search, search).Scan(&n)
	return n, err
}

// DeleteGenre removes a genre by primary key. Join rows referencing it keep
// their title association with a nulled genre.
func (q *Queries) DeleteGenre(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id)
	return err
}
