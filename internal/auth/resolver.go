// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

// Session keys used by the resolver. SessionKeyUserID is written at login;
// SessionKeyAccessToken is only present on sessions created before user IDs
// were stored directly and is kept for backward compatibility.
const (
	SessionKeyUserID      = "user_id"
	SessionKeyAccessToken = "access_token"
)

// ErrNoSession is returned when the request carries no authenticated session.
var ErrNoSession = errors.New("no authenticated session")

// Resolver turns session state into the acting user. Every authenticated
// request goes through Resolve before any ownership-scoped query runs.
type Resolver struct {
	sessions *scs.SessionManager
	queries  *store.Queries
}

// NewResolver creates a Resolver backed by the given session manager and store.
func NewResolver(sessions *scs.SessionManager, queries *store.Queries) *Resolver {
	return &Resolver{sessions: sessions, queries: queries}
}

// Resolve returns the user owning the current session. It prefers the user ID
// stored in the session and falls back to an OAuth access-token lookup for
// legacy sessions, upgrading them in place so the fallback runs once.
func (r *Resolver) Resolve(ctx context.Context) (model.User, error) {
	if userID := r.sessions.GetString(ctx, SessionKeyUserID); userID != "" {
		user, err := r.queries.GetUserByID(ctx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			// Session references a deleted account.
			return model.User{}, ErrNoSession
		}
		if err != nil {
			return model.User{}, fmt.Errorf("loading session user: %w", err)
		}
		return user, nil
	}

	token := r.sessions.GetString(ctx, SessionKeyAccessToken)
	if token == "" {
		return model.User{}, ErrNoSession
	}

	user, err := r.queries.GetUserByAccessToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNoSession
	}
	if err != nil {
		return model.User{}, fmt.Errorf("resolving access token: %w", err)
	}

	r.sessions.Put(ctx, SessionKeyUserID, user.ID)
	return user, nil
}

// Login renews the session token and binds it to the given user ID.
// Token renewal on privilege change prevents session fixation.
func (r *Resolver) Login(ctx context.Context, userID string) error {
	if err := r.sessions.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	r.sessions.Put(ctx, SessionKeyUserID, userID)
	return nil
}

// Logout destroys the current session.
func (r *Resolver) Logout(ctx context.Context) error {
	return r.sessions.Destroy(ctx)
}
