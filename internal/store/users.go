// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

const userColumns = "id, name, email, image, role, password_hash, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetUserByID returns the user with the given ID.
func (q *Queries) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetUserByEmail returns the user with the given email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

// CreateUserParams holds fields for creating a user.
type CreateUserParams struct {
	ID           string
	Name         string
	Email        string
	Image        string
	Role         string
	PasswordHash string
}

// CreateUser inserts a new user row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, image, role, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Name, arg.Email, arg.Image, arg.Role, arg.PasswordHash, now, now)
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, arg.ID)
}

// UpsertUserByEmail finds a user by email or creates one with the given
// identity attributes. Used on first successful sign-in; name and image are
// refreshed from the identity provider on every login.
func (q *Queries) UpsertUserByEmail(ctx context.Context, arg CreateUserParams) (model.User, error) {
	user, err := q.GetUserByEmail(ctx, arg.Email)
	if err == nil {
		if user.Name != arg.Name || user.Image != arg.Image {
			now := time.Now().UTC()
			if _, err := q.db.ExecContext(ctx,
				"UPDATE users SET name = ?, image = ?, updated_at = ? WHERE id = ?",
				arg.Name, arg.Image, now, user.ID); err != nil {
				return model.User{}, err
			}
			user.Name = arg.Name
			user.Image = arg.Image
			user.UpdatedAt = now
		}
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, err
	}
	return q.CreateUser(ctx, arg)
}

// UpsertOauthAccountParams holds fields for linking an external account.
type UpsertOauthAccountParams struct {
	UserID            string
	Provider          string
	ProviderAccountID string
	AccessToken       string
}

// UpsertOauthAccount links an external provider account to a user, replacing
// the stored access token on re-login.
func (q *Queries) UpsertOauthAccount(ctx context.Context, arg UpsertOauthAccountParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO oauth_accounts (user_id, provider, provider_account_id, access_token)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (provider, provider_account_id)
		 DO UPDATE SET access_token = excluded.access_token, user_id = excluded.user_id`,
		arg.UserID, arg.Provider, arg.ProviderAccountID, arg.AccessToken)
	return err
}

// GetUserByAccessToken returns the user owning the external account that
// holds the given access token. Legacy session-resolution fallback.
func (q *Queries) GetUserByAccessToken(ctx context.Context, accessToken string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT u.id, u.name, u.email, u.image, u.role, u.password_hash, u.created_at, u.updated_at
		 FROM users u
		 JOIN oauth_accounts a ON a.user_id = u.id
		 WHERE a.access_token = ?
		 LIMIT 1`, accessToken))
}

// SetUserPassword stores a new password hash for the user.
func (q *Queries) SetUserPassword(ctx context.Context, id, passwordHash string) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		passwordHash, time.Now().UTC(), id)
	return err
}
