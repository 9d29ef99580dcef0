// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

const profileColumns = "id, user_id, title, signature, bio, github_url, linkedin_url, contact_email, created_at, updated_at"

func scanProfile(row *sql.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Signature, &p.Bio,
		&p.GithubURL, &p.LinkedinURL, &p.ContactEmail, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetProfileByUserID returns the profile for the given user.
func (q *Queries) GetProfileByUserID(ctx context.Context, userID string) (model.Profile, error) {
	return scanProfile(q.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id = ?", userID))
}

// CreateProfileParams holds fields for creating a profile.
type CreateProfileParams struct {
	UserID       string
	Title        string
	Signature    string
	Bio          string
	GithubURL    string
	LinkedinURL  string
	ContactEmail string
}

// CreateProfile inserts a profile row for the user.
func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (model.Profile, error) {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, title, signature, bio, github_url, linkedin_url, contact_email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.UserID, arg.Title, arg.Signature, arg.Bio, arg.GithubURL, arg.LinkedinURL, arg.ContactEmail, now, now)
	if err != nil {
		return model.Profile{}, err
	}
	return q.GetProfileByUserID(ctx, arg.UserID)
}

// UpdateProfileParams holds fields for updating a profile.
type UpdateProfileParams struct {
	UserID       string
	Title        string
	Signature    string
	Bio          string
	GithubURL    string
	LinkedinURL  string
	ContactEmail string
}

// UpdateProfile replaces the profile fields for the user.
func (q *Queries) UpdateProfile(ctx context.Context, arg UpdateProfileParams) (model.Profile, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE profiles
		 SET title = ?, signature = ?, bio = ?, github_url = ?, linkedin_url = ?, contact_email = ?, updated_at = ?
		 WHERE user_id = ?`,
		arg.Title, arg.Signature, arg.Bio, arg.GithubURL, arg.LinkedinURL, arg.ContactEmail, time.Now().UTC(), arg.UserID)
	if err != nil {
		return model.Profile{}, err
	}
	return q.GetProfileByUserID(ctx, arg.UserID)
}
