// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

// CreateEventParams holds fields for creating an event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    string // empty for system events
	IPAddress string
	Metadata  string // JSON string
	CreatedAt time.Time
}

// CreateEvent inserts an event log row.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	var userID any
	if arg.UserID != "" {
		userID = arg.UserID
	}
	createdAt := arg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, user_id, ip_address, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, userID, arg.IPAddress, arg.Metadata, createdAt)
	return err
}

// ListRecentEvents returns the newest events up to limit.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, ip_address, metadata, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID,
			&e.IPAddress, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteOldEvents removes events created before the cutoff.
func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", cutoff)
	return err
}
