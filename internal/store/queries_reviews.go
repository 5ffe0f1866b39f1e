// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// ReviewRow is a review with its author's username joined in.
type ReviewRow struct {
	ID             int64
	TitleID        int64
	AuthorID       int64
	AuthorUsername string
	Text           string
	Score          int64
	PubDate        time.Time
}

const reviewSelect = `
	SELECT r.id, r.title_id, r.author_id, u.username, r.text, r.score, r.pub_date
	FROM reviews r
	JOIN users u ON u.id = r.author_id`

func scanReviewRow(s interface{ Scan(...any) error }) (ReviewRow, error) {
	var r ReviewRow
	err := s.Scan(&r.ID, &r.TitleID, &r.AuthorID, &r.AuthorUsername,
		&r.Text, &r.Score, &r.PubDate)
	return r, err
}

// CreateReviewParams holds the fields for CreateReview.
type CreateReviewParams struct {
	TitleID  int64
	AuthorID int64
	Text     string
	Score    int64
	PubDate  time.Time
}

// CreateReview inserts a review and returns the stored row. The UNIQUE
// (title_id, author_id) constraint rejects a second review by the same
// author even under concurrent requests.
func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (ReviewRow, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO reviews (title_id, author_id, text, score, pub_date)
		VALUES (?, ?, ?, ?, ?)`,
		arg.TitleID, arg.AuthorID, arg.Text, arg.Score, arg.PubDate)
	if err != nil {
		return ReviewRow{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ReviewRow{}, err
	}
	return q.GetReviewByID(ctx, id)
}

// GetReviewByID fetches a review by primary key.
func (q *Queries) GetReviewByID(ctx context.Context, id int64) (ReviewRow, error) {
	return scanReviewRow(q.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, id))
}

// GetReviewForTitleParams identifies a review within a title.
type GetReviewForTitleParams struct {
	ID      int64
	TitleID int64
}

// GetReviewForTitle fetches a review by id, scoped to its title.
func (q *Queries) GetReviewForTitle(ctx context.Context, arg GetReviewForTitleParams) (ReviewRow, error) {
	return scanReviewRow(q.db.QueryRowContext(ctx,
		reviewSelect+` WHERE r.id = ? AND r.title_id = ?`, arg.ID, arg.TitleID))
}

// ReviewExistsForAuthorParams identifies an (author, title) pair.
type ReviewExistsForAuthorParams struct {
	TitleID  int64
	AuthorID int64
}

// ReviewExistsForAuthor returns 1 if the author already reviewed the title.
func (q *Queries) ReviewExistsForAuthor(ctx context.Context, arg ReviewExistsForAuthorParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE title_id = ? AND author_id = ?`,
		arg.TitleID, arg.AuthorID).Scan(&n)
	return n, err
}

// ListReviewsForTitleParams holds the pagination for ListReviewsForTitle.
type ListReviewsForTitleParams struct {
	TitleID int64
	Limit   int64
	Offset  int64
}

// ListReviewsForTitle returns a title's reviews ordered by publication date.
func (q *Queries) ListReviewsForTitle(ctx context.Context, arg ListReviewsForTitleParams) ([]ReviewRow, error) {
	rows, err := q.db.QueryContext(ctx,
		reviewSelect+` WHERE r.title_id = ? ORDER BY r.pub_date, r.id LIMIT ? OFFSET ?`,
		arg.TitleID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var reviews []ReviewRow
	for rows.Next() {
		r, err := scanReviewRow(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// CountReviewsForTitle returns the number of reviews on a title.
func (q *Queries) CountReviewsForTitle(ctx context.Context, titleID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE title_id = ?`, titleID).Scan(&n)
	return n, err
}

// UpdateReviewParams holds the fields for UpdateReview.
type UpdateReviewParams struct {
	ID    int64
	Text  string
	Score int64
}

// UpdateReview updates a review's text and score. Author, title and
// publication date are immutable.
func (q *Queries) UpdateReview(ctx context.Context, arg UpdateReviewParams) (ReviewRow, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE reviews SET text = ?, score = ? WHERE id = ?`,
		arg.Text, arg.Score, arg.ID)
	if err != nil {
		return ReviewRow{}, err
	}
	return q.GetReviewByID(ctx, arg.ID)
}

// DeleteReview removes a review. Its comments cascade.
func (q *Queries) DeleteReview(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	return err
}

// AverageScoreForTitle returns the mean review score for a title, or an
// invalid NullFloat64 when the title has no reviews.
func (q *Queries) AverageScoreForTitle(ctx context.Context, titleID int64) (sql.NullFloat64, error) {
	var avg sql.NullFloat64
	err := q.db.QueryRowContext(ctx,
		`SELECT AVG(score) FROM reviews WHERE title_id = ?`, titleID).Scan(&avg)
	return avg, err
}
