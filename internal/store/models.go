// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"

	"github.com/Legyan/yamdb-final/internal/model"
)

// User is a row in the users table.
type User struct {
	ID                   int64
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

// IsAdmin returns true if the user has the admin role or the superuser flag.
func (u *User) IsAdmin() bool {
	return model.Role(u.Role) == model.RoleAdmin || u.IsSuperuser
}

// IsModerator returns true if the user has the moderator role.
func (u *User) IsModerator() bool {
	return model.Role(u.Role) == model.RoleModerator
}

// CanModerate returns true if the user may edit or delete other users'
// reviews and comments.
func (u *User) CanModerate() bool {
	return u.IsAdmin() || u.IsModerator()
}

// Category is a row in the categories table.
type Category struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Genre is a row in the genres table.
type Genre struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Title is a row in the titles table.
type Title struct {
	ID          int64
	Name        string
	Year        int64
	Description sql.NullString
	CategoryID  sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GenresTitle is a row in the genres_titles join table. GenreID goes null
// when the referenced genre is deleted.
type GenresTitle struct {
	ID      int64
	TitleID int64
	GenreID sql.NullInt64
}

// Review is a row in the reviews table.
type Review struct {
	ID       int64
	TitleID  int64
	AuthorID int64
	Text     string
	Score    int64
	PubDate  time.Time
}

// Comment is a row in the comments table.
type Comment struct {
	ID       int64
	ReviewID int64
	AuthorID int64
	Text     string
	PubDate  time.Time
}

// Event is a row in the events log table.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string // JSON string
	CreatedAt time.Time
}
