// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/Legyan/yamdb-final/internal/model"
)

func newEventTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		t.Fatalf("failed to create events table: %v", err)
	}
	return db
}

func countEvents(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	return n
}

func TestEventLogHandlerForwardsWarnings(t *testing.T) {
	db := newEventTestDB(t)
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewEventLogHandler(inner, db))

	logger.Info("routine message")
	if n := countEvents(t, db); n != 0 {
		t.Errorf("info logs should not reach the event log, got %d events", n)
	}

	logger.Warn("token request with invalid confirmation code", "category", "auth", "username", "alice")
	if n := countEvents(t, db); n != 1 {
		t.Fatalf("expected 1 event after a warning, got %d", n)
	}

	var level, category, metadata string
	err := db.QueryRow(`SELECT level, category, metadata FROM events`).Scan(&level, &category, &metadata)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if level != model.EventLevelWarning {
		t.Errorf("level = %q, want %q", level, model.EventLevelWarning)
	}
	if category != model.EventCategoryAuth {
		t.Errorf("category = %q, want %q", category, model.EventCategoryAuth)
	}
	if metadata != `{"username":"alice"}` {
		t.Errorf("metadata = %q", metadata)
	}
}

func TestEventLogHandlerInfersCategory(t *testing.T) {
	db := newEventTestDB(t)
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewEventLogHandler(inner, db))

	logger.Error("failed to update review")

	var category string
	if err := db.QueryRow(`SELECT category FROM events`).Scan(&category); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if category != model.EventCategoryReview {
		t.Errorf("category = %q, want %q", category, model.EventCategoryReview)
	}
}

func TestEventLogHandlerCustomLevel(t *testing.T) {
	db := newEventTestDB(t)
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewEventLogHandlerWithLevel(inner, db, slog.LevelError))

	logger.Warn("below the threshold")
	if n := countEvents(t, db); n != 0 {
		t.Errorf("warnings below the threshold should be skipped, got %d events", n)
	}

	logger.Error("over the threshold")
	if n := countEvents(t, db); n != 1 {
		t.Errorf("expected 1 event, got %d", n)
	}
}
