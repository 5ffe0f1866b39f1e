// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// CommentRow is a comment with its author's username joined in.
type CommentRow struct {
	ID             int64
	ReviewID       int64
	AuthorID       int64
	AuthorUsername string
	Text           string
	PubDate        time.Time
}

const commentSelect = `
	SELECT c.id, c.review_id, c.author_id, u.username, c.text, c.pub_date
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func scanCommentRow(s interface{ Scan(...any) error }) (CommentRow, error) {
	var c CommentRow
	err := s.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.AuthorUsername,
		&c.Text, &c.PubDate)
	return c, err
}

// CreateCommentParams holds the fields for CreateComment.
type CreateCommentParams struct {
	ReviewID int64
	AuthorID int64
	Text     string
	PubDate  time.Time
}

// CreateComment inserts a comment and returns the stored row.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (CommentRow, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO comments (review_id, author_id, text, pub_date)
		VALUES (?, ?, ?, ?)`,
		arg.ReviewID, arg.AuthorID, arg.Text, arg.PubDate)
	if err != nil {
		return CommentRow{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return CommentRow{}, err
	}
	return q.GetCommentByID(ctx, id)
}

// GetCommentByID fetches a comment by primary key.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (CommentRow, error) {
	return scanCommentRow(q.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
}

// GetCommentForReviewParams identifies a comment within a review.
type GetCommentForReviewParams struct {
	ID       int64
	ReviewID int64
}

// GetCommentForReview fetches a comment by id, scoped to its review.
func (q *Queries) GetCommentForReview(ctx context.Context, arg GetCommentForReviewParams) (CommentRow, error) {
	return scanCommentRow(q.db.QueryRowContext(ctx,
		commentSelect+` WHERE c.id = ? AND c.review_id = ?`, arg.ID, arg.ReviewID))
}

// ListCommentsForReviewParams holds the pagination for ListCommentsForReview.
type ListCommentsForReviewParams struct {
	ReviewID int64
	Limit    int64
	Offset   int64
}

// ListCommentsForReview returns a review's comments ordered by publication date.
func (q *Queries) ListCommentsForReview(ctx context.Context, arg ListCommentsForReviewParams) ([]CommentRow, error) {
	rows, err := q.db.QueryContext(ctx,
		commentSelect+` WHERE c.review_id = ? ORDER BY c.pub_date, c.id LIMIT ? OFFSET ?`,
		arg.ReviewID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var comments []CommentRow
	for rows.Next() {
		c, err := scanCommentRow(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountCommentsForReview returns the number of comments on a review.
func (q *Queries) CountCommentsForReview(ctx context.Context, reviewID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE review_id = ?`, reviewID).Scan(&n)
	return n, err
}

// UpdateCommentParams holds the fields for UpdateComment.
type UpdateCommentParams struct {
	ID   int64
	Text string
}

// UpdateComment updates a comment's text. Author, review and publication
// date are immutable.
func (q *Queries) UpdateComment(ctx context.Context, arg UpdateCommentParams) (CommentRow, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE comments SET text = ? WHERE id = ?`, arg.Text, arg.ID)
	if err != nil {
		return CommentRow{}, err
	}
	return q.GetCommentByID(ctx, arg.ID)
}

// DeleteComment removes a comment.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}
