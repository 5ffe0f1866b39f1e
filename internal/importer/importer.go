// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package importer loads seed data from CSV files into the database. Rows
// keep their source ids so cross-file references stay intact.
package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Legyan/yamdb-final/internal/model"
)

// CSV file names expected in the data directory.
const (
	UsersFile       = "users.csv"
	CategoriesFile  = "category.csv"
	GenresFile      = "genre.csv"
	TitlesFile      = "titles.csv"
	GenreTitlesFile = "genre_title.csv"
	ReviewsFile     = "review.csv"
	CommentsFile    = "comments.csv"
)

// Importer loads CSV seed data.
type Importer struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a new Importer instance.
func New(db *sql.DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: db, logger: logger}
}

// Result counts the rows imported per entity.
type Result struct {
	Users       int
	Categories  int
	Genres      int
	Titles      int
	GenreTitles int
	Reviews     int
	Comments    int
}

// Import loads all CSV files from dir in dependency order. The import runs
// in a transaction and rolls back on error.
func (i *Importer) Import(ctx context.Context, dir string) (*Result, error) {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &Result{}

	// Import in order of dependencies:
	// 1. Users (no dependencies)
	// 2. Categories (no dependencies)
	// 3. Genres (no dependencies)
	// 4. Titles (depends on categories)
	// 5. Genre links (depends on titles, genres)
	// 6. Reviews (depends on titles, users)
	// 7. Comments (depends on reviews, users)
	steps := []struct {
		file string
		load func(context.Context, *sql.Tx, [][]string) (int, error)
	}{
		{UsersFile, i.loadUsers},
		{CategoriesFile, i.loadCategories},
		{GenresFile, i.loadGenres},
		{TitlesFile, i.loadTitles},
		{GenreTitlesFile, i.loadGenreTitles},
		{ReviewsFile, i.loadReviews},
		{CommentsFile, i.loadComments},
	}

	counts := make(map[string]int, len(steps))
	for _, step := range steps {
		records, err := readCSV(filepath.Join(dir, step.file))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", step.file, err)
		}
		n, err := step.load(ctx, tx, records)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", step.file, err)
		}
		counts[step.file] = n
		i.logger.Info("imported csv file", "category", "system", "file", step.file, "rows", n)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	result.Users = counts[UsersFile]
	result.Categories = counts[CategoriesFile]
	result.Genres = counts[GenresFile]
	result.Titles = counts[TitlesFile]
	result.GenreTitles = counts[GenreTitlesFile]
	result.Reviews = counts[ReviewsFile]
	result.Comments = counts[CommentsFile]
	return result, nil
}

// readCSV reads all data rows from a CSV file, skipping the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var records [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, row)
	}
	return records, nil
}

// requireFields checks the minimum column count for a row.
func requireFields(row []string, n int) error {
	if len(row) < n {
		return fmt.Errorf("expected at least %d fields, got %d", n, len(row))
	}
	return nil
}

// parsePubDate accepts the RFC 3339 timestamps the seed data carries.
func parsePubDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pub_date %q: %w", s, err)
	}
	return t, nil
}

// loadUsers imports rows of (id, username, email, role, bio, first_name, last_name).
func (i *Importer) loadUsers(ctx context.Context, tx *sql.Tx, records [][]string) (int, error) {
	now := time.Now()
	for _, row := range records {
		if err := requireFields(row, 7); err != nil {
			return 0, err
		}
		role := row[3]
		if _, err := model.ParseRole(role); err != nil {
			return 0, fmt.Errorf("user %s: %w", row[1], err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, email, role, bio, first_name, last_name,
				is_superuser, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			row[0], row[1], row[2], role, row[4], row[5], row[6], now, now)
		if err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// loadCategories imports rows of (id, name, slug).
func (i *Importer) loadCategories(ctx context.Context, tx *sql.Tx, records [][]string) (int, error) {
	return loadTaxonomy(ctx, tx, "categories", records)
}

// loadGenres imports rows of (id, name, slug).
func (i *Importer) loadGenres(ctx context.Context, tx *sql.Tx, records [][]string) (int, error) {
	return loadTaxonomy(ctx, tx, "genres", records)
}

func loadTaxonomy(ctx context.Context, tx *sql.Tx, table string, records [][]string) (int, error) {
	now := time.Now()
	for _, row := range records {
		if err := requireFields(row, 3); err != nil {
			return 0, err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO `+table+` (id, name, slug, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			row[0], row[1], row[2], now, now)
		if err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// loadTitles imports rows of (id, name, year, category_id).
func (i *Importer) loadTitles(ctx context.Context, tx *sql.Tx, records [][]string) (int, error) {
	now := time.Now()
	for _, row := range records {
		if err := requireFields(row, 4); err != nil {
			return 0, err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO titles (id, name, year, category_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			row[0], row[1], row[2], row[3], now, now)
		if err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// loadGenreTitles imports rows of (id, title_id, genre_id).
func (i *Importer) loadGenreTitles(ctx context.Context, tx *sql.Tx, records [][]string) (int, error) {
	for _, row := range records {
		if err := requireFields(row, 3); err != nil {
			return 0, err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO genres_titles (id, title_id, genre_id)
			VALUES (?, ?, ?)`,
			row[0], row[1], row[2])
		if err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// loadReviews imports rows of (id, title_id, text, author_id, score, pub_date).
func (i *Importer) loadReviews(ctx context.Context, tx *sql.Tx, records [][]string) (int, error) {
	for _, row := range records {
		if err := requireFields(row, 6); err != nil {
			return 0, err
		}
		pubDate, err := parsePubDate(row[5])
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO reviews (id, title_id, text, author_id, score, pub_date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			row[0], row[1], row[2], row[3], row[4], pubDate)
		if err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// loadComments imports rows of (id, review_id, text, author_id, pub_date).
func (i *Importer) loadComments(ctx context.Context, tx *sql.Tx, records [][]string) (int, error) {
	for _, row := range records {
		if err := requireFields(row, 5); err != nil {
			return 0, err
		}
		pubDate, err := parsePubDate(row[4])
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO comments (id, review_id, text, author_id, pub_date)
			VALUES (?, ?, ?, ?, ?)`,
			row[0], row[1], row[2], row[3], pubDate)
		if err != nil {
			return 0, err
		}
	}
	return len(records), nil
}
