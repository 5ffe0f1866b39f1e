// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// titleSelect returns title rows with the category joined in and the rating
// aggregated from reviews at query time. Titles without reviews yield a NULL
// rating.
const titleSelect = `
	SELECT t.id, t.name, t.year, t.description, t.category_id,
		t.created_at, t.updated_at,
		(SELECT AVG(r.score) FROM reviews r WHERE r.title_id = t.id) AS rating,
		c.name, c.slug
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id`

// TitleRow is a title with its computed rating and joined category.
type TitleRow struct {
	ID           int64
	Name         string
	Year         int64
	Description  sql.NullString
	CategoryID   sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Rating       sql.NullFloat64
	CategoryName sql.NullString
	CategorySlug sql.NullString
}

func scanTitleRow(s interface{ Scan(...any) error }) (TitleRow, error) {
	var t TitleRow
	err := s.Scan(&t.ID, &t.Name, &t.Year, &t.Description, &t.CategoryID,
		&t.CreatedAt, &t.UpdatedAt, &t.Rating, &t.CategoryName, &t.CategorySlug)
	return t, err
}

// CreateTitleParams holds the fields for CreateTitle.
type CreateTitleParams struct {
	Name        string
	Year        int64
	Description sql.NullString
	CategoryID  sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateTitle inserts a title and returns the stored row with aggregates.
func (q *Queries) CreateTitle(ctx context.Context, arg CreateTitleParams) (TitleRow, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO titles (name, year, description, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Year, arg.Description, arg.CategoryID,
		arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return TitleRow{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return TitleRow{}, err
	}
	return q.GetTitleByID(ctx, id)
}

// GetTitleByID fetches a title with its rating and category.
func (q *Queries) GetTitleByID(ctx context.Context, id int64) (TitleRow, error) {
	return scanTitleRow(q.db.QueryRowContext(ctx, titleSelect+` WHERE t.id = ?`, id))
}

// ListTitlesParams holds the filters for ListTitles and CountTitles.
type ListTitlesParams struct {
	CategorySlug string        // exact category slug
	GenreSlug    string        // exact genre slug, matched through the join table
	Name         string        // name substring
	Year         sql.NullInt64 // exact year
	Limit        int64
	Offset       int64
}

// titleFilterClauses builds the WHERE conditions shared by ListTitles and
// CountTitles.
func titleFilterClauses(arg ListTitlesParams) (string, []any) {
	var conds []string
	var args []any

	if arg.CategorySlug != "" {
		conds = append(conds, "c.slug = ?")
		args = append(args, arg.CategorySlug)
	}
	if arg.GenreSlug != "" {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM genres_titles gt
			JOIN genres g ON g.id = gt.genre_id
			WHERE gt.title_id = t.id AND g.slug = ?)`)
		args = append(args, arg.GenreSlug)
	}
	if arg.Name != "" {
		conds = append(conds, "t.name LIKE '%' || ? || '%'")
		args = append(args, arg.Name)
	}
	if arg.Year.Valid {
		conds = append(conds, "t.year = ?")
		args = append(args, arg.Year.Int64)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListTitles returns titles matching the filters, ordered by id.
func (q *Queries) ListTitles(ctx context.Context, arg ListTitlesParams) ([]TitleRow, error) {
	where, args := titleFilterClauses(arg)
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, titleSelect+where+` ORDER BY t.id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var titles []TitleRow
	for rows.Next() {
		t, err := scanTitleRow(rows)
		if err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// CountTitles returns the number of titles matching the filters.
func (q *Queries) CountTitles(ctx context.Context, arg ListTitlesParams) (int64, error) {
	where, args := titleFilterClauses(arg)
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM titles t
		LEFT JOIN categories c ON c.id = t.category_id`+where, args...).Scan(&n)
	return n, err
}

// UpdateTitleParams holds the fields for UpdateTitle.
type UpdateTitleParams struct {
	ID          int64
	Name        string
	Year        int64
	Description sql.NullString
	CategoryID  sql.NullInt64
	UpdatedAt   time.Time
}

// UpdateTitle updates a title and returns the stored row with aggregates.
func (q *Queries) UpdateTitle(ctx context.Context, arg UpdateTitleParams) (TitleRow, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE titles
		SET name = ?, year = ?, description = ?, category_id = ?, updated_at = ?
		WHERE id = ?`,
		arg.Name, arg.Year, arg.Description, arg.CategoryID,
		arg.UpdatedAt, arg.ID)
	if err != nil {
		return TitleRow{}, err
	}
	return q.GetTitleByID(ctx, arg.ID)
}

// DeleteTitle removes a title. Reviews cascade, and their comments with them.
func (q *Queries) DeleteTitle(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM titles WHERE id = ?`, id)
	return err
}

// AddTitleGenreParams holds the fields for AddTitleGenre.
type AddTitleGenreParams struct {
	TitleID int64
	GenreID int64
}

// AddTitleGenre links a genre to a title through the join table.
func (q *Queries) AddTitleGenre(ctx context.Context, arg AddTitleGenreParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO genres_titles (title_id, genre_id) VALUES (?, ?)`,
		arg.TitleID, arg.GenreID)
	return err
}

// ClearTitleGenres removes all genre links for a title.
func (q *Queries) ClearTitleGenres(ctx context.Context, titleID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM genres_titles WHERE title_id = ?`, titleID)
	return err
}

// ListGenresForTitle returns the genres linked to a title, skipping join
// rows whose genre was deleted.
func (q *Queries) ListGenresForTitle(ctx context.Context, titleID int64) ([]Genre, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.slug, g.created_at, g.updated_at
		FROM genres_titles gt
		JOIN genres g ON g.id = gt.genre_id
		WHERE gt.title_id = ?
		ORDER BY g.name`, titleID)
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

// CountGenreLinksForTitle returns the number of join rows for a title,
// including rows whose genre reference was nulled by a genre deletion.
func (q *Queries) CountGenreLinksForTitle(ctx context.Context, titleID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM genres_titles WHERE title_id = ?`, titleID).Scan(&n)
	return n, err
}
