// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides database access for the application: connection
// setup, embedded goose migrations, and the query layer used by services
// and handlers.
package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the query layer. Both *sql.DB
// and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds all database queries. Create one with New and scope it to a
// transaction with WithTx when multiple statements must commit together.
type Queries struct {
	db DBTX
}

// New creates a new Queries instance.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance that runs against the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
