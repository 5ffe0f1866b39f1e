// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, username, email, first_name, last_name, bio, role,
	is_superuser, confirmation_code_hash, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.Bio, &u.Role, &u.IsSuperuser, &u.ConfirmationCodeHash,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Username             string
	Email                string
	FirstName            string
	LastName             string
	Bio                  string
	Role                 string
	IsSuperuser          bool
	ConfirmationCodeHash sql.NullString
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CreateUser inserts a user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, bio, role,
			is_superuser, confirmation_code_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Username, arg.Email, arg.FirstName, arg.LastName, arg.Bio,
		arg.Role, arg.IsSuperuser, arg.ConfirmationCodeHash,
		arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByUsername fetches a user by username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// GetUserByEmail fetches a user by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UserExistsByUsername returns 1 if a user with the given username exists.
func (q *Queries) UserExistsByUsername(ctx context.Context, username string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&n)
	return n, err
}

// UserExistsByEmail returns 1 if a user with the given email exists.
func (q *Queries) UserExistsByEmail(ctx context.Context, email string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	return n, err
}

// ListUsersParams holds the filters for ListUsers.
type ListUsersParams struct {
	Search string // username substring; empty matches all
	Limit  int64
	Offset int64
}

// ListUsers returns users ordered by username.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE (? = '' OR username LIKE '%' || ? || '%')
		ORDER BY username
		LIMIT ? OFFSET ?`,
		arg.Search, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName,
			&u.LastName, &u.Bio, &u.Role, &u.IsSuperuser,
			&u.ConfirmationCodeHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of users matching the search filter.
func (q *Queries) CountUsers(ctx context.Context, search string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users
		WHERE (? = '' OR username LIKE '%' || ? || '%')`,
		search, search).Scan(&n)
	return n, err
}

// UpdateUserParams holds the fields for UpdateUser.
type UpdateUserParams struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      string
	UpdatedAt time.Time
}

// UpdateUser updates a user's profile fields and returns the stored row.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users
		SET username = ?, email = ?, first_name = ?, last_name = ?,
			bio = ?, role = ?, updated_at = ?
		WHERE id = ?`,
		arg.Username, arg.Email, arg.FirstName, arg.LastName,
		arg.Bio, arg.Role, arg.UpdatedAt, arg.ID)
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, arg.ID)
}

// UpdateUserConfirmationCodeParams holds the fields for UpdateUserConfirmationCode.
type UpdateUserConfirmationCodeParams struct {
	ID                   int64
	ConfirmationCodeHash sql.NullString
	UpdatedAt            time.Time
}

// UpdateUserConfirmationCode replaces the stored confirmation code hash.
func (q *Queries) UpdateUserConfirmationCode(ctx context.Context, arg UpdateUserConfirmationCodeParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET confirmation_code_hash = ?, updated_at = ? WHERE id = ?`,
		arg.ConfirmationCodeHash, arg.UpdatedAt, arg.ID)
	return err
}

// DeleteUser removes a user by primary key.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
