// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// MaxTagsPerUser caps how many tags a single owner may create.
const MaxTagsPerUser = 20

// Tag represents a per-user content tag. Name and slug are unique within
// the owning user's namespace only.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagWithCount is a tag annotated with its published-post count, used by
// public tag listings.
type TagWithCount struct {
	Tag
	PostCount int64 `json:"-"`
}
