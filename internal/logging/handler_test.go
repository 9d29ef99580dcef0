// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "oblog-logging-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// discardHandler drops every record.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func lastEvent(t *testing.T, db *sql.DB) model.Event {
	t.Helper()
	events, err := store.New(db).ListRecentEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no events recorded")
	}
	return events[0]
}

func countEvents(t *testing.T, db *sql.DB) int {
	t.Helper()
	events, err := store.New(db).ListRecentEvents(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	return len(events)
}

func TestEventLogHandler_ErrorsAreRecorded(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Error("database unavailable", "detail", "disk full")

	event := lastEvent(t, db)
	if event.Level != model.EventLevelError {
		t.Errorf("level = %q, want %q", event.Level, model.EventLevelError)
	}
	if event.Message != "database unavailable" {
		t.Errorf("message = %q", event.Message)
	}
	if !strings.Contains(event.Metadata, "disk full") {
		t.Errorf("metadata missing attribute: %q", event.Metadata)
	}
}

func TestEventLogHandler_InfoIsNotRecorded(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Info("routine startup message")

	if n := countEvents(t, db); n != 0 {
		t.Errorf("events = %d, want 0", n)
	}
}

func TestEventLogHandler_CustomLevelRecordsInfo(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))

	logger.Info("seed completed")

	event := lastEvent(t, db)
	if event.Level != model.EventLevelInfo {
		t.Errorf("level = %q, want %q", event.Level, model.EventLevelInfo)
	}
}

func TestEventLogHandler_CategoryAttribute(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Warn("quota nearly reached", "category", model.EventCategoryTag)

	event := lastEvent(t, db)
	if event.Category != model.EventCategoryTag {
		t.Errorf("category = %q, want %q", event.Category, model.EventCategoryTag)
	}
	// The category attribute must not leak into metadata.
	if strings.Contains(event.Metadata, "category") {
		t.Errorf("metadata contains category: %q", event.Metadata)
	}
}

func TestEventLogHandler_InferredCategories(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"login failed for account", model.EventCategoryAuth},
		{"autosave failed", model.EventCategoryPost},
		{"tag rename rejected", model.EventCategoryTag},
		{"profile update rejected", model.EventCategoryUser},
		{"scheduler tick overran", model.EventCategorySystem},
	}

	for _, tt := range tests {
		if got := inferCategory(tt.message); got != tt.want {
			t.Errorf("inferCategory(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestEventLogHandler_UserIDAttribute(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Warn("auth rejected", "user_id", "u-123")

	event := lastEvent(t, db)
	if !event.UserID.Valid || event.UserID.String != "u-123" {
		t.Errorf("user_id = %+v, want u-123", event.UserID)
	}
}
